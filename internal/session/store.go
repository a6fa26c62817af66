// Package session holds the authenticated identity for the client's lifetime.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/credentials"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// ErrMissingCredential means an action needs a token and none is available.
var ErrMissingCredential = gateway.ErrMissingCredential

// Authenticator is the subset of the booking API used for login and signup.
type Authenticator interface {
	Login(ctx context.Context, role models.Role, creds gateway.Credentials) (json.RawMessage, error)
	RegisterUser(ctx context.Context, reg gateway.UserRegistration) (json.RawMessage, error)
	RegisterDoctor(ctx context.Context, reg gateway.DoctorRegistration) (json.RawMessage, error)
}

// Store owns the single active Session.
type Store struct {
	mu      sync.RWMutex
	current *models.Session

	auth    Authenticator
	creds   credentials.Store
	logger  *logging.Logger
	metrics *metrics.GatewayMetrics
}

// NewStore creates a store with no active session.
func NewStore(auth Authenticator, creds credentials.Store, logger *logging.Logger, m *metrics.GatewayMetrics) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if creds == nil {
		creds = credentials.NewMemoryStore()
	}
	return &Store{auth: auth, creds: creds, logger: logger, metrics: m}
}

// Login authenticates with the endpoint for role and makes the result the
// current session.
func (s *Store) Login(ctx context.Context, role models.Role, email, password string) (*models.Session, error) {
	if !role.Valid() {
		return nil, apperr.Validation("login", "Choose whether to log in as user or doctor.")
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("login", "Email and password are required.")
	}

	raw, err := s.auth.Login(ctx, role, gateway.Credentials{Email: email, Password: password})
	if err != nil {
		s.metrics.ObserveFlow("login", false)
		s.logger.Warn("login failed", "role", role, "error", err)
		return nil, err
	}
	return s.establish(ctx, "login", raw, role, email)
}

// Signup registers a new account and makes it the current session.
func (s *Store) Signup(ctx context.Context, form SignupForm) (*models.Session, error) {
	if form == nil {
		return nil, apperr.Validation("signup", "Choose whether to sign up as user or doctor.")
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	raw, err := form.submit(ctx, s.auth)
	if err != nil {
		s.metrics.ObserveFlow("signup", false)
		s.logger.Warn("signup failed", "role", form.Role(), "error", err)
		return nil, err
	}
	return s.establish(ctx, "signup", raw, form.Role(), strings.TrimSpace(form.ContactEmail()))
}

func (s *Store) establish(ctx context.Context, op string, raw json.RawMessage, role models.Role, email string) (*models.Session, error) {
	sess, err := models.NormalizeIdentity(raw, role, email)
	if err != nil {
		s.metrics.ObserveFlow(op, false)
		s.logger.Warn("unexpected identity payload", "op", op, "error", err)
		return nil, apperr.Shape(op, "The server sent an unexpected response.", err)
	}

	if sess.Token != "" {
		if err := s.creds.Save(ctx, sess.Token); err != nil {
			s.logger.Warn("failed to persist token", "op", op, "error", err)
		}
	} else {
		s.logger.Warn("server issued no token; authorized actions will be blocked", "op", op, "role", role)
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()

	s.metrics.ObserveFlow(op, true)
	s.logger.Info("session established", "op", op, "role", role, "id", sess.ID)
	out := sess
	return &out, nil
}

// Logout drops the in-memory session. The persisted token is kept.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns a copy of the active session.
func (s *Store) Current() (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	out := *s.current
	return &out, true
}

// Role returns the active role, or "" when unauthenticated.
func (s *Store) Role() models.Role {
	if sess, ok := s.Current(); ok {
		return sess.Role
	}
	return ""
}

// Token returns the credential for an authorized call.
//
// An active session without a token fails with ErrMissingCredential rather
// than falling back to an older persisted token. With no active session the
// persisted token is used.
func (s *Store) Token(ctx context.Context) (string, error) {
	if sess, ok := s.Current(); ok {
		if sess.Token == "" {
			return "", ErrMissingCredential
		}
		return sess.Token, nil
	}
	token, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read persisted token", "error", err)
		return "", errors.Join(ErrMissingCredential, err)
	}
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// Authorized reports whether Token would succeed.
func (s *Store) Authorized(ctx context.Context) bool {
	_, err := s.Token(ctx)
	return err == nil
}
