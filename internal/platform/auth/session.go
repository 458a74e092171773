package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultCookieName = "telemedicine_session"
	DefaultSessionTTL = 7 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

// Claims are the JWT claims carried in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	UserType string `json:"user_type"`
}

type SessionConfig struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionManager issues and verifies signed session tokens and builds the
// cookies that carry them.
type SessionManager struct {
	cfg SessionConfig
	now func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("session secret must be at least 16 bytes")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	return &SessionManager{cfg: cfg, now: time.Now}, nil
}

func (m *SessionManager) CookieName() string { return m.cfg.CookieName }

func (m *SessionManager) TTL() time.Duration { return m.cfg.TTL }

// Issue signs a new session token for the user.
func (m *SessionManager) Issue(userID uuid.UUID, username, userType string) (string, *Principal, error) {
	now := m.now()
	p := &Principal{
		UserID:    userID,
		Username:  username,
		UserType:  userType,
		TokenID:   uuid.New().String(),
		ExpiresAt: now.Add(m.cfg.TTL).Truncate(time.Second),
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        p.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
		Username: username,
		UserType: userType,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, p, nil
}

// Parse verifies a session token and returns its principal.
func (m *SessionManager) Parse(token string) (*Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" || !ValidUserType(claims.UserType) {
		return nil, ErrInvalidSession
	}
	return &Principal{
		UserID:    userID,
		Username:  claims.Username,
		UserType:  claims.UserType,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *SessionManager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
