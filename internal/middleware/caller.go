package middleware

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// UserLookup loads an account by id.  *repository.UserRepo implements it.
type UserLookup interface {
    GetByID(ctx context.Context, id string) (model.User, error)
}

// LoadCaller reads the account named by the token subject and stores its
// authorization flags as the request's caller.  It must run after JWTAuth.
// Reading the row on every request means approval or admin changes take
// effect without a new token.
func LoadCaller(users UserLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := UserIDFrom(c)
            if id == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
            }
            u, err := users.GetByID(c.Request().Context(), id)
            if err != nil {
                if errors.Is(err, repository.ErrUserNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "account no longer exists"})
                }
                c.Logger().Errorf("load caller %s: %v", id, err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "database error"})
            }
            c.Set(callerKey, u.Caller())
            return next(c)
        }
    }
}
