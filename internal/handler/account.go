package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/service"
)

// AccountHandler serves the caller's profile and the admin user list.
type AccountHandler struct {
    Accounts *service.AccountService
}

func NewAccountHandler(a *service.AccountService) *AccountHandler {
    if a == nil {
        panic("nil service passed to NewAccountHandler")
    }
    return &AccountHandler{Accounts: a}
}

type profileReq struct {
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
}

type setAdminReq struct {
    IsAdmin *bool `json:"is_admin"`
}

// Profile handles GET /v1/profile.
func (h *AccountHandler) Profile(c echo.Context) error {
    u, err := h.Accounts.GetProfile(c.Request().Context(), getCaller(c))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// CompleteProfile handles PUT /v1/profile.
func (h *AccountHandler) CompleteProfile(c echo.Context) error {
    var req profileReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    u, err := h.Accounts.CompleteProfile(c.Request().Context(), getCaller(c), req.FirstName, req.LastName)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// ListUsers handles GET /v1/admin/users.
func (h *AccountHandler) ListUsers(c echo.Context) error {
    users, err := h.Accounts.ListAll(c.Request().Context(), getCaller(c))
    if err != nil {
        return respondError(c, err)
    }
    out := make([]userResp, 0, len(users))
    for _, u := range users {
        out = append(out, toUserResp(u))
    }
    return c.JSON(http.StatusOK, out)
}

// Approve handles POST /v1/admin/users/:id/approve.
func (h *AccountHandler) Approve(c echo.Context) error {
    u, err := h.Accounts.Approve(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// Revoke handles POST /v1/admin/users/:id/revoke.
func (h *AccountHandler) Revoke(c echo.Context) error {
    u, err := h.Accounts.Revoke(c.Request().Context(), getCaller(c), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// SetAdmin handles PUT /v1/admin/users/:id/admin with {"is_admin": bool}.
func (h *AccountHandler) SetAdmin(c echo.Context) error {
    var req setAdminReq
    if err := c.Bind(&req); err != nil || req.IsAdmin == nil {
        return badRequest(c, "is_admin is required")
    }
    u, err := h.Accounts.SetAdmin(c.Request().Context(), getCaller(c), c.Param("id"), *req.IsAdmin)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}
