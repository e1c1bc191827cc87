package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/badminton-scheduler/internal/model"
)

// RequireMember aborts with 403 unless the caller is approved or an
// administrator.  It assumes LoadCaller already ran.
func RequireMember() echo.MiddlewareFunc {
    return require(model.Caller.Member, "account pending approval")
}

// RequireAdmin aborts with 403 unless the caller holds administrator rights.
func RequireAdmin() echo.MiddlewareFunc {
    return require(model.Caller.Admin, "administrator rights required")
}

func require(allowed func(model.Caller) bool, msg string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            caller := CallerFrom(c)
            if !caller.Authenticated() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
            }
            if !allowed(caller) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": msg})
            }
            return next(c)
        }
    }
}
