package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/config"
	"github.com/veltara/school-season-booking/internal/model"
	"github.com/veltara/school-season-booking/internal/permission"
	"github.com/veltara/school-season-booking/internal/repository"
	"github.com/veltara/school-season-booking/internal/utils"
)

// userSource supplies user records for credential checks and account
// creation.
type userSource interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// sessionStore opens and ends the server-side session rows that carry
// the principal's context payload.
type sessionStore interface {
	Create(ctx context.Context, userID uint64, payload json.RawMessage, exp time.Time) (uint64, error)
	Revoke(ctx context.Context, sessionID uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler implements season-scoped login.  A login is only valid
// against a season the user holds a role in; the issued token carries
// that scope for the guard and the context service.
type AuthHandler struct {
	Cfg         config.Config
	Users       userSource
	Assignments permission.AssignmentSource
	Catalog     permission.Catalog
	Sessions    sessionStore
}

func NewAuthHandler(cfg config.Config, users userSource, assignments permission.AssignmentSource, catalog permission.Catalog, sessions sessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Assignments: assignments, Catalog: catalog, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	SeasonID uint64 `json:"season_id" validate:"required"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResp struct {
	Token       string   `json:"token"`
	Expires     string   `json:"expires"`
	User        userPart `json:"user"`
	Role        string   `json:"role"`
	SeasonID    uint64   `json:"season_id"`
	Permissions []string `json:"permissions"`
}

// Register creates a STAFF account.  Platform-level role elevation is
// an operator action, not self-service.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, req.Password, "STAFF", h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":    id,
		"email": strings.ToLower(strings.TrimSpace(req.Email)),
	})
}

// Login authenticates a principal into a season scope.  Every failure
// path — unknown email, wrong password, inactive account, no role in
// the requested season — answers with the same 401 body so a caller
// cannot learn which check failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return denyLogin(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return denyLogin(c)
	}

	seasonRole, found, err := h.Assignments.RoleFor(ctx, u.ID, req.SeasonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !found {
		return denyLogin(c)
	}

	// An uncatalogued role still logs in; it just resolves to no
	// permissions, which every guard treats as deny.
	perms, _ := h.Catalog.Lookup(seasonRole)
	if perms == nil {
		perms = []string{}
	}

	exp := time.Now().UTC().Add(time.Duration(h.Cfg.SessionTTLDays) * 24 * time.Hour)
	sid, err := h.Sessions.Create(ctx, u.ID, nil, exp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}

	tok, err := utils.NewSeasonToken(h.Cfg.JWTSecret, u.ID, u.Role, req.SeasonID, seasonRole, sid, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		Token:       tok.Token,
		Expires:     tok.Exp.Format(time.RFC3339),
		User:        userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Role:        seasonRole,
		SeasonID:    req.SeasonID,
		Permissions: perms,
	})
}

// denyLogin is the uniform login failure.  Keep the body identical
// across causes.
func denyLogin(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
}

// Logout revokes the token's server-side session.  The JWT itself
// stays valid until expiry, but with the session row revoked the
// context endpoints refuse it, same as an expired session.
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sessions.Revoke(ctx, sid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every live session of the principal, across all
// devices and season scopes.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sessions.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal's scope claims plus the
// account record behind them.
func (h *AuthHandler) Me(c echo.Context) error {
	resp := echo.Map{
		"user_id":     c.Get("user_id"),
		"role":        c.Get("role"),
		"season_id":   c.Get("season_id"),
		"season_role": c.Get("season_role"),
	}
	if uid, err := getUserID(c); err == nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if u, err := h.Users.GetByID(ctx, uid); err == nil {
			resp["email"] = u.Email
			resp["is_active"] = u.IsActive
		}
	}
	return c.JSON(http.StatusOK, resp)
}
