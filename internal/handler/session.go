package handler

import (
    "encoding/json"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/service"
)

// SessionHandler exposes the session registry over HTTP.  Authentication and
// the member/admin gates run in middleware; the service checks again.
type SessionHandler struct {
    Sessions *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
    if s == nil {
        panic("nil service passed to NewSessionHandler")
    }
    return &SessionHandler{Sessions: s}
}

// sessionReq is the body of create and update.  Cost accepts either a JSON
// number or a decimal string such as "12.50".
type sessionReq struct {
    Date            *string      `json:"date"`
    Time            *string      `json:"time"`
    DurationMinutes *int         `json:"duration_minutes"`
    Cost            *json.Number `json:"cost"`
    PaymentLink     *string      `json:"payment_link"`
    Places          *int         `json:"places"`
}

// List handles GET /v1/sessions?type=upcoming|past&date=YYYY-MM-DD.  The
// type defaults to upcoming.
func (h *SessionHandler) List(c echo.Context) error {
    scope := model.SessionScope(strings.ToLower(strings.TrimSpace(c.QueryParam("type"))))
    if scope == "" {
        scope = model.ScopeUpcoming
    }
    var anchor *time.Time
    if raw := c.QueryParam("date"); raw != "" {
        d, err := parseDate(raw)
        if err != nil {
            return badRequest(c, "date must be YYYY-MM-DD")
        }
        anchor = &d
    }
    sessions, err := h.Sessions.List(c.Request().Context(), getCaller(c), scope, anchor)
    if err != nil {
        return respondError(c, err)
    }
    out := make([]sessionResp, 0, len(sessions))
    for _, s := range sessions {
        out = append(out, toSessionResp(s))
    }
    return c.JSON(http.StatusOK, out)
}

// Dates handles GET /v1/sessions/dates?month=1-12&year=YYYY.
func (h *SessionHandler) Dates(c echo.Context) error {
    month, err := strconv.Atoi(c.QueryParam("month"))
    if err != nil {
        return badRequest(c, "month must be a number between 1 and 12")
    }
    year, err := strconv.Atoi(c.QueryParam("year"))
    if err != nil {
        return badRequest(c, "year must be a number")
    }
    dates, err := h.Sessions.GetSessionDates(c.Request().Context(), getCaller(c), month, year)
    if err != nil {
        return respondError(c, err)
    }
    out := make([]string, 0, len(dates))
    for _, d := range dates {
        out = append(out, d.Format(dateLayout))
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
    s, err := h.Sessions.GetByID(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toSessionResp(s))
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
    var req sessionReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    in := service.SessionFields{}
    if req.Date != nil {
        d, err := parseDate(*req.Date)
        if err != nil {
            return badRequest(c, "date must be YYYY-MM-DD")
        }
        in.Date = d
    }
    if req.Time != nil {
        in.Time = strings.TrimSpace(*req.Time)
    }
    if req.DurationMinutes != nil {
        in.DurationMinutes = *req.DurationMinutes
    }
    if req.Cost != nil {
        in.Cost = req.Cost.String()
    }
    if req.PaymentLink != nil {
        in.PaymentLink = *req.PaymentLink
    }
    if req.Places != nil {
        in.Places = *req.Places
    }

    s, err := h.Sessions.Create(c.Request().Context(), getCaller(c), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, toSessionResp(s))
}

// Update handles PUT and PATCH /v1/sessions/:id.  Both apply only the
// fields present in the body.
func (h *SessionHandler) Update(c echo.Context) error {
    var req sessionReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    in := service.SessionChanges{
        Time:            req.Time,
        DurationMinutes: req.DurationMinutes,
        PaymentLink:     req.PaymentLink,
        Places:          req.Places,
    }
    if req.Date != nil {
        d, err := parseDate(*req.Date)
        if err != nil {
            return badRequest(c, "date must be YYYY-MM-DD")
        }
        in.Date = &d
    }
    if in.Time != nil {
        t := strings.TrimSpace(*in.Time)
        in.Time = &t
    }
    if req.Cost != nil {
        cost := req.Cost.String()
        in.Cost = &cost
    }

    s, err := h.Sessions.Update(c.Request().Context(), getCaller(c), c.Param("id"), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toSessionResp(s))
}

// Delete handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Delete(c echo.Context) error {
    if err := h.Sessions.Delete(c.Request().Context(), getCaller(c), c.Param("id")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
