package middleware

// identity.go holds the context keys shared across middleware files and the
// helpers handlers use to read the authenticated caller back out.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/model"
)

const (
    userIDKey = "user_id" // subject of a verified access token, string
    callerKey = "caller"  // model.Caller loaded from the users table
)

// CallerFrom returns the caller stored by LoadCaller.  Requests that did not
// pass through it yield the zero Caller, which is unauthenticated.
func CallerFrom(c echo.Context) model.Caller {
    if v, ok := c.Get(callerKey).(model.Caller); ok {
        return v
    }
    return model.Caller{}
}

// UserIDFrom returns the token subject stored by JWTAuth, or "".
func UserIDFrom(c echo.Context) string {
    if v, ok := c.Get(userIDKey).(string); ok {
        return v
    }
    return ""
}

// currentUserID identifies the requester for rate limiting and logs.
// It returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
    if id := CallerFrom(c).ID; id != "" {
        return id
    }
    if id := UserIDFrom(c); id != "" {
        return id
    }
    return "anon"
}
