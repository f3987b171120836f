package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"

	"github.com/dmitrijs2005/formai/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/formai/internal/cryptox"
	"github.com/dmitrijs2005/formai/internal/logging"
)

var ErrInvalidEmail = errors.New("invalid email address")

// IdentityService owns the anonymous user id and the optional email.
type IdentityService interface {
	// UserID returns the stored id, creating it on first use. Once created it
	// does not change, so an email set later does not move the subscription.
	UserID(ctx context.Context) (string, error)
	Email(ctx context.Context) (string, error)
	SetEmail(ctx context.Context, email string) error
}

type identityService struct {
	repo metadata.Repository
	log  logging.Logger
	mu   sync.Mutex
}

func NewIdentityService(repo metadata.Repository, log logging.Logger) IdentityService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &identityService{repo: repo, log: log.With("module", "identity")}
}

func (s *identityService) UserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := metadata.GetString(ctx, s.repo, KeyUserID)
	if err != nil || id != "" {
		return id, err
	}

	seed, err := s.repo.Get(ctx, KeyInstallSeed)
	if err != nil {
		return "", err
	}
	if len(seed) == 0 {
		seed = cryptox.NewInstallSeed()
	}
	email, err := metadata.GetString(ctx, s.repo, KeyUserEmail)
	if err != nil {
		return "", err
	}

	id, err = cryptox.DeriveUserID(seed, email)
	if err != nil {
		return "", fmt.Errorf("derive user id: %w", err)
	}
	if err := s.repo.SetMany(ctx, map[string][]byte{KeyInstallSeed: seed, KeyUserID: []byte(id)}); err != nil {
		return "", err
	}
	s.log.Info(ctx, "user id created", "user_id", id)
	return id, nil
}

func (s *identityService) Email(ctx context.Context) (string, error) {
	return metadata.GetString(ctx, s.repo, KeyUserEmail)
}

// SetEmail stores the normalized address. An empty email clears it.
func (s *identityService) SetEmail(ctx context.Context, email string) error {
	email = cryptox.NormalizeEmail(email)
	if email == "" {
		return s.repo.Delete(ctx, KeyUserEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return s.repo.Set(ctx, KeyUserEmail, []byte(email))
}
