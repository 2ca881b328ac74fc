// Package session manages the viewer's identity: a one-time choice between
// registering as a member or entering as a guest. Once established, the
// identity is persisted with no expiry and attached as the author of every
// message and reaction the viewer submits. There is no sign-out transition.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sanctuary-live/internal/api"
	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"

	"github.com/google/uuid"
)

// IdentityStore persists the single identity record for this profile
type IdentityStore interface {
	Load(ctx context.Context) (*domain.Identity, error)
	Save(ctx context.Context, identity *domain.Identity) error
}

// RegistrationClient is the slice of the API client the member path needs
type RegistrationClient interface {
	RegisterUser(ctx context.Context, req api.RegistrationRequest) (api.RegisteredUser, error)
}

// Manager holds the current identity and drives the
// Unidentified -> Identified transition
type Manager struct {
	store  IdentityStore
	client RegistrationClient
	logger *logger.Logger

	mu      sync.RWMutex
	current domain.Identity
}

// NewManager creates a Manager, restoring any previously established
// identity from the store
func NewManager(ctx context.Context, store IdentityStore, client RegistrationClient, log *logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.Default()
	}
	m := &Manager{
		store:   store,
		client:  client,
		logger:  log,
		current: domain.Anonymous(),
	}

	stored, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored identity: %w", err)
	}
	if stored != nil {
		m.current = *stored
		log.Info("restored identity", map[string]interface{}{
			"kind": string(stored.Kind),
			"name": stored.Name,
		})
	}
	return m, nil
}

// Current returns the identity in effect, anonymous until one is established
func (m *Manager) Current() domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Identified reports whether a member or guest identity has been established
func (m *Manager) Identified() bool {
	return m.Current().Kind != domain.IdentityAnonymous
}

// RegisterMember registers a member account with the backend and persists
// the returned profile and token. On any failure the state stays unchanged
// and the caller surfaces the error text; there is no automatic retry.
func (m *Manager) RegisterMember(ctx context.Context, form domain.RegistrationForm) (domain.Identity, error) {
	if err := validateContact(form.Name, form.Email); err != nil {
		return domain.Anonymous(), err
	}

	user, err := m.client.RegisterUser(ctx, api.RegistrationRequest{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Location: form.Location,
		Password: form.Password,
	})
	if err != nil {
		m.logger.Warn("member registration failed", map[string]interface{}{
			"email": form.Email,
			"error": err.Error(),
		})
		return domain.Anonymous(), err
	}

	identity := domain.Identity{
		ProfileID: uuid.New().String(),
		Kind:      domain.IdentityMember,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Location:  user.Location,
		Token:     user.Token,
		CreatedAt: time.Now().UTC(),
	}
	if identity.Name == "" {
		identity.Name = form.Name
	}
	if identity.Email == "" {
		identity.Email = form.Email
	}

	return m.establish(ctx, identity)
}

// EnterAsGuest establishes a guest identity from a name and email pair.
// No registration call is made; the pair is only persisted locally.
func (m *Manager) EnterAsGuest(ctx context.Context, name, email string) (domain.Identity, error) {
	if err := validateContact(name, email); err != nil {
		return domain.Anonymous(), err
	}

	identity := domain.Identity{
		ProfileID: uuid.New().String(),
		Kind:      domain.IdentityGuest,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().UTC(),
	}
	return m.establish(ctx, identity)
}

func (m *Manager) establish(ctx context.Context, identity domain.Identity) (domain.Identity, error) {
	if err := m.store.Save(ctx, &identity); err != nil {
		return domain.Anonymous(), fmt.Errorf("failed to persist identity: %w", err)
	}

	m.mu.Lock()
	m.current = identity
	m.mu.Unlock()

	m.logger.Info("identity established", map[string]interface{}{
		"kind": string(identity.Kind),
		"name": identity.Name,
	})
	return identity, nil
}

// validateContact enforces the minimal author requirements: a non-empty
// name and a plausible email
func validateContact(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Name is required")
	}
	if email == "" {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Email is required")
	}
	if !strings.Contains(email, "@") {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Email doesn't look right")
	}
	return nil
}
