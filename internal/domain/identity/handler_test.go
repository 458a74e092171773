package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/auth"
)

type testEnv struct {
	h        *Handler
	e        *echo.Echo
	sessions *auth.SessionManager
	store    *auth.MemoryRevocationStore
}

func newTestHandler(t *testing.T) *testEnv {
	t.Helper()
	sessions, err := auth.NewSessionManager(auth.SessionConfig{Secret: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	store := auth.NewMemoryRevocationStore(time.Hour)
	t.Cleanup(store.Close)
	return &testEnv{
		h:        NewHandler(newTestService(), sessions, store, zerolog.Nop()),
		e:        echo.New(),
		sessions: sessions,
		store:    store,
	}
}

func (env *testEnv) post(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

func decodeAuthResponse(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHandler_Login(t *testing.T) {
	env := newTestHandler(t)
	env.h.svc.CreateUser(context.Background(), "patient1", "password123", "patient")

	c, rec := env.post(`{"username":"patient1","password":"password123"}`)
	if err := env.h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeAuthResponse(t, rec)
	if !resp.Success || resp.Message != "Login successful" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.User == nil || resp.User.Username != "patient1" || resp.User.UserType != "patient" {
		t.Errorf("unexpected user %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash leaked in login response")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "telemedicine_session" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	p, err := env.sessions.Parse(cookies[0].Value)
	if err != nil {
		t.Fatalf("cookie does not parse: %v", err)
	}
	if p.Username != "patient1" {
		t.Errorf("expected patient1 in session, got %s", p.Username)
	}
}

func TestHandler_Login_MissingFields(t *testing.T) {
	env := newTestHandler(t)

	for _, body := range []string{`{"username":"patient1"}`, `{"password":"x"}`, `{}`, `not json`} {
		c, rec := env.post(body)
		if err := env.h.Login(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
		resp := decodeAuthResponse(t, rec)
		if resp.Success || resp.Message != "Username and password are required" {
			t.Errorf("%s: unexpected response %+v", body, resp)
		}
	}
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	env := newTestHandler(t)
	env.h.svc.CreateUser(context.Background(), "doctor1", "password123", "doctor")

	for _, body := range []string{
		`{"username":"doctor1","password":"wrong"}`,
		`{"username":"nobody","password":"password123"}`,
	} {
		c, rec := env.post(body)
		if err := env.h.Login(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if resp := decodeAuthResponse(t, rec); resp.Message != "Invalid username or password" {
			t.Errorf("unexpected message %q", resp.Message)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("expected no cookie on failed login")
		}
	}
}

func TestHandler_Logout_RevokesSession(t *testing.T) {
	env := newTestHandler(t)
	_, p, err := env.sessions.Issue(uuid.New(), "patient1", "patient")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, rec := env.post("")
	c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), p)))

	if err := env.h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if resp := decodeAuthResponse(t, rec); !resp.Success || resp.Message != "Logged out successfully" {
		t.Errorf("unexpected response %+v", resp)
	}
	revoked, _ := env.store.IsRevoked(context.Background(), p.TokenID)
	if !revoked {
		t.Error("expected session to be revoked")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %v", cookies)
	}
}

func TestHandler_Logout_WithoutSession(t *testing.T) {
	env := newTestHandler(t)
	c, rec := env.post("")

	if err := env.h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if cookies := rec.Result().Cookies(); len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %v", cookies)
	}
}

func TestHandler_Me(t *testing.T) {
	env := newTestHandler(t)
	u, _ := env.h.svc.CreateUser(context.Background(), "doctor1", "pw", "doctor")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: u.ID, Username: u.Username, UserType: u.UserType}))
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	if err := env.h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		User User `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.User.ID != u.ID || body.User.UserType != "doctor" {
		t.Errorf("unexpected user %+v", body.User)
	}
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	env := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	err := env.h.Me(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
