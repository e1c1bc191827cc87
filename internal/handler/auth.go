package handler

import (
    "context"  // provides context with cancellation for DB calls
    "errors"   // errors.Is against repository sentinels
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/google/uuid"      // account ids
    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/badminton-scheduler/internal/config"     // app configuration
    "github.com/iliyamo/badminton-scheduler/internal/model"      // account model
    "github.com/iliyamo/badminton-scheduler/internal/repository" // DB repositories
    "github.com/iliyamo/badminton-scheduler/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
    Email     string `json:"email"`
    Password  string `json:"password"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    userResp  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// Signup creates an account and returns tokens immediately.  New accounts
// wait for approval unless their email is a configured bootstrap admin.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return badRequest(c, "email/password required")
    }
    if !strings.Contains(req.Email, "@") {
        return badRequest(c, "email is not valid")
    }
    if err := utils.ValidatePassword(req.Password); err != nil {
        return badRequest(c, err.Error())
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    now := time.Now().UTC()
    bootstrap := h.Cfg.IsBootstrapAdmin(req.Email)
    u := model.User{
        ID:         uuid.NewString(),
        Email:      req.Email,
        IsAdmin:    bootstrap,
        IsApproved: bootstrap,
        CreatedAt:  now,
        UpdatedAt:  now,
    }
    first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
    if first != "" {
        u.FirstName = &first
    }
    if last != "" {
        u.LastName = &last
    }
    u.ProfileCompleted = first != "" && last != ""

    if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "email already exists"})
        }
        c.Logger().Errorf("signup: %v", err)
        return internalError(c, "create user failed")
    }
    return h.issue(ctx, c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return badRequest(c, "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return invalidCredentials(c)
        }
        return internalError(c, "query failed")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return invalidCredentials(c)
    }
    return h.issue(ctx, c, http.StatusOK, u)
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return invalidRefresh(c)
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return internalError(c, "revoke refresh failed")
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return invalidRefresh(c)
        }
        return internalError(c, "load user failed")
    }
    return h.issue(ctx, c, http.StatusOK, u)
}

// RefreshAccess validates a refresh token and returns a new access token
// without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return invalidRefresh(c)
    }
    if _, err := h.Users.GetByID(ctx, userID); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return invalidRefresh(c)
        }
        return internalError(c, "load user failed")
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
    if err != nil {
        return internalError(c, "issue access failed")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes either one refresh token (body refresh_token) or, when only
// a valid bearer access token is supplied, every refresh token of that user.
// It does not require the JWT middleware.
func (h *AuthHandler) Logout(c echo.Context) error {
    var userID string
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        if sub, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))); err == nil {
            userID = sub
        }
    }
    // Invalid JSON just leaves the refresh token empty; the header may suffice.
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    switch {
    case refreshToken != "":
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return invalidRefresh(c)
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return internalError(c, "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    case userID != "":
        if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
            return internalError(c, "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    }
    return badRequest(c, "provide Authorization header or refresh_token")
}

// Me returns the authenticated account.  Runs behind JWTAuth and LoadCaller.
func (h *AuthHandler) Me(c echo.Context) error {
    caller := getCaller(c)
    if !caller.Authenticated() {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
    }
    u, err := h.Users.GetByID(c.Request().Context(), caller.ID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "account no longer exists"})
        }
        return internalError(c, "load user failed")
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// issue creates an access token and a stored refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return internalError(c, "issue access failed")
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return internalError(c, "issue refresh failed")
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return internalError(c, "save refresh failed")
    }
    return c.JSON(status, authResp{
        User:    toUserResp(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}

func invalidCredentials(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
}

func invalidRefresh(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid refresh token"})
}

func internalError(c echo.Context, msg string) error {
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": msg})
}
