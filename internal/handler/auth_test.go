package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/veltara/school-season-booking/internal/config"
	"github.com/veltara/school-season-booking/internal/model"
	"github.com/veltara/school-season-booking/internal/permission"
	"github.com/veltara/school-season-booking/internal/repository"
	"github.com/veltara/school-season-booking/internal/utils"
)

type stubUsers struct {
	byEmail map[string]model.User
}

func (s *stubUsers) Create(_ context.Context, email, _, role string, _ int) (uint64, error) {
	if _, ok := s.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	id := uint64(len(s.byEmail) + 1)
	s.byEmail[email] = model.User{ID: id, Email: email, Role: role, IsActive: true}
	return id, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

type stubAssignments struct {
	roles map[[2]uint64]string
}

func (s *stubAssignments) RoleFor(_ context.Context, userID, seasonID uint64) (string, bool, error) {
	role, ok := s.roles[[2]uint64{userID, seasonID}]
	return role, ok, nil
}

type stubSessions struct {
	created int
	revoked []uint64
}

func (s *stubSessions) Create(_ context.Context, _ uint64, _ json.RawMessage, _ time.Time) (uint64, error) {
	s.created++
	return uint64(s.created), nil
}

func (s *stubSessions) Revoke(_ context.Context, sessionID uint64) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

func (s *stubSessions) RevokeAllForUser(_ context.Context, _ uint64) error { return nil }

func testAuthHandler(t *testing.T) (*AuthHandler, *stubSessions) {
	t.Helper()
	hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &stubUsers{byEmail: map[string]model.User{
		"alice@school.test": {ID: 10, Email: "alice@school.test", PasswordHash: hash, Role: "STAFF", IsActive: true},
		"bob@school.test":   {ID: 11, Email: "bob@school.test", PasswordHash: hash, Role: "STAFF", IsActive: false},
	}}
	assignments := &stubAssignments{roles: map[[2]uint64]string{
		{10, 3}: "instructor",
		{10, 4}: "janitor", // not in the catalog
	}}
	sessions := &stubSessions{}
	cfg := config.Config{JWTSecret: "test-secret", TokenTTLMin: 15, SessionTTLDays: 7}
	return NewAuthHandler(cfg, users, assignments, permission.DefaultCatalog(), sessions), sessions
}

func doLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("login handler: %v", err)
	}
	return rec
}

func TestLoginIssuesSeasonScopedToken(t *testing.T) {
	h, sessions := testAuthHandler(t)

	rec := doLogin(t, h, `{"email":"alice@school.test","password":"correct horse","season_id":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token       string   `json:"token"`
		Role        string   `json:"role"`
		SeasonID    uint64   `json:"season_id"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("no token issued")
	}
	if resp.Role != "instructor" || resp.SeasonID != 3 {
		t.Fatalf("wrong scope: %+v", resp)
	}
	if len(resp.Permissions) == 0 {
		t.Fatalf("instructor permissions missing")
	}
	if sessions.created != 1 {
		t.Fatalf("expected one session row, got %d", sessions.created)
	}
}

func TestLoginUncataloguedRoleGetsEmptyPermissions(t *testing.T) {
	h, _ := testAuthHandler(t)

	rec := doLogin(t, h, `{"email":"alice@school.test","password":"correct horse","season_id":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Permissions == nil {
		t.Fatalf("permissions must serialize as [], not null")
	}
	if len(resp.Permissions) != 0 {
		t.Fatalf("unknown role granted %v", resp.Permissions)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	h, sessions := testAuthHandler(t)

	cases := map[string]string{
		"unknown email":    `{"email":"nobody@school.test","password":"correct horse","season_id":3}`,
		"wrong password":   `{"email":"alice@school.test","password":"wrong","season_id":3}`,
		"inactive account": `{"email":"bob@school.test","password":"correct horse","season_id":3}`,
		"no season role":   `{"email":"alice@school.test","password":"correct horse","season_id":99}`,
	}

	var bodies []string
	for name, body := range cases {
		rec := doLogin(t, h, body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d, want 401", name, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Fatalf("failure bodies differ: %q vs %q", bodies[0], b)
		}
	}
	if sessions.created != 0 {
		t.Fatalf("failed logins opened %d sessions", sessions.created)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h, _ := testAuthHandler(t)
	e := echo.New()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		if err := h.Register(e.NewContext(req, rec)); err != nil {
			t.Fatalf("register handler: %v", err)
		}
		return rec
	}

	rec := post(`{"email":"new@school.test","password":"longenough"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = post(`{"email":"alice@school.test","password":"longenough"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status %d, want 409", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h, sessions := testAuthHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("sid", float64(42))

	if err := h.Logout(c); err != nil {
		t.Fatalf("logout handler: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != 42 {
		t.Fatalf("revoked sessions = %v", sessions.revoked)
	}
}

func TestLoginValidatesBody(t *testing.T) {
	h, _ := testAuthHandler(t)

	rec := doLogin(t, h, `{"email":"not-an-email","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
