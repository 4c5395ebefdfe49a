package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vitalog/internal/baas"
)

// sessionCheckTimeout bounds the backend session liveness check so a dead
// network can never hang app startup.
const sessionCheckTimeout = 3 * time.Second

// refreshLeeway is how close to expiry a token may get before CurrentUser
// refreshes it proactively.
const refreshLeeway = 60 * time.Second

// AuthService wraps the backend's auth endpoints and keeps the current
// session in memory. It is a thin pass-through: credential policy, token
// issuance and revocation all belong to the backend.
type AuthService struct {
	client *baas.Client
	logger *slog.Logger

	mu      sync.RWMutex
	session *baas.Session
}

// NewAuthService creates a new auth service
func NewAuthService(client *baas.Client, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{client: client, logger: logger}
}

// SignIn authenticates with email/password and caches the session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*baas.Session, error) {
	session, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setSession(session)
	s.logger.Info("signed in", "user_id", session.User.ID)
	return session, nil
}

// SignUp registers a new account and caches its session.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*baas.Session, error) {
	session, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setSession(session)
	return session, nil
}

// SignOut revokes the cached session. The local session is dropped even
// when the remote revocation fails.
func (s *AuthService) SignOut(ctx context.Context) error {
	session := s.Session()
	s.setSession(nil)
	if session == nil {
		return nil
	}
	if err := s.client.SignOut(ctx, session.AccessToken); err != nil {
		s.logger.Warn("remote sign-out failed, session dropped locally", "error", err)
		return err
	}
	return nil
}

// Session returns the cached session, or nil when signed out.
func (s *AuthService) Session() *baas.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// AccessToken returns the cached access token, or "" when signed out.
func (s *AuthService) AccessToken() string {
	if session := s.Session(); session != nil {
		return session.AccessToken
	}
	return ""
}

// CurrentUser validates the cached session against the backend, refreshing
// the token first when it is expired or about to expire. The backend check
// runs under sessionCheckTimeout; on timeout or network failure it returns
// nil rather than blocking the caller.
func (s *AuthService) CurrentUser(ctx context.Context) *baas.User {
	session := s.Session()
	if session == nil {
		return nil
	}

	if s.tokenNeedsRefresh(session.AccessToken) {
		refreshed, err := s.client.Refresh(ctx, session.RefreshToken)
		if err != nil {
			s.logger.Warn("session refresh failed", "error", err)
			return nil
		}
		s.setSession(refreshed)
		session = refreshed
	}

	checkCtx, cancel := context.WithTimeout(ctx, sessionCheckTimeout)
	defer cancel()

	user, err := s.client.GetUser(checkCtx, session.AccessToken)
	if err != nil {
		s.logger.Warn("session check failed", "error", err)
		return nil
	}
	return user
}

// tokenNeedsRefresh inspects the access token's exp claim without verifying
// the signature; the backend is the verifier, this only decides whether a
// refresh round-trip is worth making.
func (s *AuthService) tokenNeedsRefresh(accessToken string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		// Unparseable token: let the backend reject it.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < refreshLeeway
}

func (s *AuthService) setSession(session *baas.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}
