package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/service"
)

// RegistrationHandler exposes the registration ledger over HTTP.
type RegistrationHandler struct {
    Registrations *service.RegistrationService
}

func NewRegistrationHandler(r *service.RegistrationService) *RegistrationHandler {
    if r == nil {
        panic("nil service passed to NewRegistrationHandler")
    }
    return &RegistrationHandler{Registrations: r}
}

type rosterEntryResp struct {
    participantResp
    Position   int  `json:"position"`
    InMainList bool `json:"in_main_list"`
    QueueRank  int  `json:"queue_rank,omitempty"`
}

type rosterResp struct {
    Session  sessionResp       `json:"session"`
    MainList []rosterEntryResp `json:"main_list"`
    Queue    []rosterEntryResp `json:"queue"`
}

type myRegistrationResp struct {
    registrationResp
    Session sessionResp `json:"session"`
}

// Participants handles GET /v1/sessions/:id/participants.
func (h *RegistrationHandler) Participants(c echo.Context) error {
    ps, err := h.Registrations.GetParticipants(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    out := make([]participantResp, 0, len(ps))
    for _, p := range ps {
        out = append(out, toParticipantResp(p))
    }
    return c.JSON(http.StatusOK, out)
}

// Roster handles GET /v1/sessions/:id/roster.
func (h *RegistrationHandler) Roster(c echo.Context) error {
    r, err := h.Registrations.GetRoster(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    entries := func(in []service.RosterEntry) []rosterEntryResp {
        out := make([]rosterEntryResp, 0, len(in))
        for _, e := range in {
            out = append(out, rosterEntryResp{
                participantResp: toParticipantResp(e.Participant),
                Position:        e.Position,
                InMainList:      e.InMainList,
                QueueRank:       e.QueueRank,
            })
        }
        return out
    }
    return c.JSON(http.StatusOK, rosterResp{
        Session:  toSessionResp(r.Session),
        MainList: entries(r.MainList),
        Queue:    entries(r.Queue),
    })
}

// Count handles GET /v1/sessions/:id/registrations/count.
func (h *RegistrationHandler) Count(c echo.Context) error {
    n, err := h.Registrations.GetRegistrationCount(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"session_id": c.Param("id"), "count": n})
}

// Register handles POST /v1/sessions/:id/registration.
func (h *RegistrationHandler) Register(c echo.Context) error {
    reg, err := h.Registrations.Register(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, toRegistrationResp(reg))
}

// Unregister handles DELETE /v1/sessions/:id/registration.
func (h *RegistrationHandler) Unregister(c echo.Context) error {
    if err := h.Registrations.Unregister(c.Request().Context(), getCaller(c), c.Param("id")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// MarkPaid handles POST /v1/sessions/:id/registration/paid.
func (h *RegistrationHandler) MarkPaid(c echo.Context) error {
    reg, err := h.Registrations.MarkAsPaid(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toRegistrationResp(reg))
}

// Remove handles DELETE /v1/registrations/:id (administrators).
func (h *RegistrationHandler) Remove(c echo.Context) error {
    if err := h.Registrations.RemoveParticipant(c.Request().Context(), getCaller(c), c.Param("id")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Mine handles GET /v1/my-registrations.
func (h *RegistrationHandler) Mine(c echo.Context) error {
    regs, err := h.Registrations.ListMyRegistrations(c.Request().Context(), getCaller(c))
    if err != nil {
        return respondError(c, err)
    }
    out := make([]myRegistrationResp, 0, len(regs))
    for _, r := range regs {
        out = append(out, myRegistrationResp{registrationResp: toRegistrationResp(r.Registration), Session: toSessionResp(r.Session)})
    }
    return c.JSON(http.StatusOK, out)
}
