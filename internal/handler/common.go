package handler // handler defines http handlers

import (
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/middleware"
    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/service"
)

// dateLayout is the wire format of session dates.
const dateLayout = time.DateOnly

// getCaller returns the caller loaded by the middleware chain.
func getCaller(c echo.Context) model.Caller { return middleware.CallerFrom(c) }

// respondError writes a service error as {"error": kind, "message": text}.
// Anything unclassified is logged and reported as a 500.
func respondError(c echo.Context, err error) error {
    var se *service.Error
    if errors.As(err, &se) {
        return c.JSON(statusFor(se.Kind), echo.Map{"error": se.Kind.Error(), "message": se.Msg})
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func statusFor(kind error) int {
    switch kind {
    case service.ErrUnauthorized:
        return http.StatusUnauthorized
    case service.ErrForbidden:
        return http.StatusForbidden
    case service.ErrNotFound:
        return http.StatusNotFound
    case service.ErrConflict:
        return http.StatusConflict
    case service.ErrValidation:
        return http.StatusBadRequest
    }
    return http.StatusInternalServerError
}

// kindFor names the error kind reported for a status echo produced itself.
func kindFor(status int) string {
    switch status {
    case http.StatusBadRequest:
        return "validation"
    case http.StatusUnauthorized:
        return "unauthorized"
    case http.StatusForbidden:
        return "forbidden"
    case http.StatusNotFound:
        return "not_found"
    case http.StatusMethodNotAllowed:
        return "method_not_allowed"
    case http.StatusConflict:
        return "conflict"
    case http.StatusTooManyRequests:
        return "too_many_requests"
    }
    if status >= http.StatusInternalServerError {
        return "internal"
    }
    return "bad_request"
}

// ErrorHandler replaces echo's default so router errors such as unknown
// paths use the same {"error", "message"} body as the handlers.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    status, msg := http.StatusInternalServerError, "internal error"
    var he *echo.HTTPError
    if errors.As(err, &he) {
        status = he.Code
        if status < http.StatusInternalServerError {
            msg = fmt.Sprint(he.Message)
        }
    } else {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    }
    if c.Request().Method == http.MethodHead {
        err = c.NoContent(status)
    } else {
        err = c.JSON(status, echo.Map{"error": kindFor(status), "message": msg})
    }
    if err != nil {
        c.Logger().Error(err)
    }
}

// badRequest reports malformed input that never reached the service.
func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": msg})
}

// parseDate reads a YYYY-MM-DD value as a civil day at midnight UTC.
func parseDate(s string) (time.Time, error) {
    return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
}

// ----- response DTOs -----

type sessionResp struct {
    ID              string    `json:"id"`
    Date            string    `json:"date"`
    Time            string    `json:"time"`
    DurationMinutes int       `json:"duration_minutes"`
    Cost            string    `json:"cost"`
    CostCents       int64     `json:"cost_cents"`
    PaymentLink     *string   `json:"payment_link"`
    Places          int       `json:"places"`
    CreatedByID     string    `json:"created_by_id"`
    CreatedAt       time.Time `json:"created_at"`
    UpdatedAt       time.Time `json:"updated_at"`
}

func toSessionResp(s model.Session) sessionResp {
    return sessionResp{
        ID:              s.ID,
        Date:            s.Date.Format(dateLayout),
        Time:            s.Time,
        DurationMinutes: s.DurationMinutes,
        Cost:            service.FormatEuros(s.CostCents),
        CostCents:       s.CostCents,
        PaymentLink:     s.PaymentLink,
        Places:          s.Places,
        CreatedByID:     s.CreatedByID,
        CreatedAt:       s.CreatedAt,
        UpdatedAt:       s.UpdatedAt,
    }
}

type registrationResp struct {
    ID           string    `json:"id"`
    SessionID    string    `json:"session_id"`
    UserID       string    `json:"user_id"`
    HasPaid      bool      `json:"has_paid"`
    RegisteredAt time.Time `json:"registered_at"`
}

func toRegistrationResp(r model.Registration) registrationResp {
    return registrationResp{ID: r.ID, SessionID: r.SessionID, UserID: r.UserID, HasPaid: r.HasPaid, RegisteredAt: r.RegisteredAt}
}

type profileResp struct {
    ID        string  `json:"id"`
    FirstName *string `json:"first_name"`
    LastName  *string `json:"last_name"`
    Email     string  `json:"email"`
    Image     *string `json:"image"`
}

type participantResp struct {
    registrationResp
    User profileResp `json:"user"`
}

func toParticipantResp(p model.Participant) participantResp {
    return participantResp{
        registrationResp: toRegistrationResp(p.Registration),
        User: profileResp{
            ID:        p.User.ID,
            FirstName: p.User.FirstName,
            LastName:  p.User.LastName,
            Email:     p.User.Email,
            Image:     p.User.Image,
        },
    }
}

type userResp struct {
    ID               string    `json:"id"`
    Email            string    `json:"email"`
    FirstName        *string   `json:"first_name"`
    LastName         *string   `json:"last_name"`
    Image            *string   `json:"image"`
    IsAdmin          bool      `json:"is_admin"`
    IsApproved       bool      `json:"is_approved"`
    ProfileCompleted bool      `json:"profile_completed"`
    CreatedAt        time.Time `json:"created_at"`
}

func toUserResp(u model.User) userResp {
    return userResp{
        ID:               u.ID,
        Email:            u.Email,
        FirstName:        u.FirstName,
        LastName:         u.LastName,
        Image:            u.Image,
        IsAdmin:          u.IsAdmin,
        IsApproved:       u.IsApproved,
        ProfileCompleted: u.ProfileCompleted,
        CreatedAt:        u.CreatedAt,
    }
}
