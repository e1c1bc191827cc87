package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/badminton-scheduler/internal/handler"
	"github.com/iliyamo/badminton-scheduler/internal/middleware"
)

// RegisterSessions registers the session registry and registration ledger
// under /v1.  Reads and registrations require an approved member; session
// writes and participant removal require an administrator.
func RegisterSessions(e *echo.Echo, s Stack, sh *handler.SessionHandler, rh *handler.RegistrationHandler) {
	member := chain(s.Auth, middleware.RequireMember())
	cached := chain(member, s.Cache)
	admin := chain(s.Auth, middleware.RequireAdmin())
	write := chain(admin, s.Invalidate)

	v1 := e.Group("/v1")
	v1.GET("/sessions", sh.List, cached...)
	v1.GET("/sessions/dates", sh.Dates, cached...)
	v1.GET("/sessions/:id", sh.Get, member...)
	v1.GET("/sessions/:id/participants", rh.Participants, member...)
	v1.GET("/sessions/:id/roster", rh.Roster, member...)
	v1.GET("/sessions/:id/registrations/count", rh.Count, member...)
	v1.POST("/sessions/:id/registration", rh.Register, member...)
	v1.DELETE("/sessions/:id/registration", rh.Unregister, member...)
	v1.POST("/sessions/:id/registration/paid", rh.MarkPaid, member...)
	v1.GET("/my-registrations", rh.Mine, member...)

	v1.POST("/sessions", sh.Create, write...)
	v1.PUT("/sessions/:id", sh.Update, write...)
	v1.PATCH("/sessions/:id", sh.Update, write...)
	v1.DELETE("/sessions/:id", sh.Delete, write...)
	v1.DELETE("/registrations/:id", rh.Remove, admin...)
}
