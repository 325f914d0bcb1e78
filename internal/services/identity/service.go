package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
	"pqchat/internal/util/memzero"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol): %w",
		minPassphraseLength,
		domain.ErrValidation,
	)
)

// Service manages identity key creation and access using a backing store.
type Service struct {
	store     domain.IdentityStore
	directory domain.Directory
	log       *slog.Logger
	now       func() time.Time
}

// New returns an identity service backed by the given store. directory may
// be nil when the caller never publishes.
func New(s domain.IdentityStore, directory domain.Directory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, directory: directory, log: log, now: time.Now}
}

// GenerateIdentity creates fresh key pairs for user, seals the private keys
// under passphrase and persists the record, replacing any earlier identity.
// Only the public keys are returned.
func (s *Service) GenerateIdentity(
	ctx context.Context,
	user domain.UserID,
	passphrase string,
) (domain.PublicKeys, error) {
	if err := domain.ValidateUserID(user); err != nil {
		return domain.PublicKeys{}, err
	}
	if passphrase == "" {
		return domain.PublicKeys{}, fmt.Errorf("passphrase is empty: %w", domain.ErrValidation)
	}

	kemPriv, kemPub, err := crypto.GenerateKEM()
	if err != nil {
		return domain.PublicKeys{}, err
	}
	defer memzero.Zero(kemPriv)
	sigPriv, sigPub, err := crypto.GenerateSigning()
	if err != nil {
		return domain.PublicKeys{}, err
	}
	defer memzero.Zero(sigPriv)

	salt, err := crypto.NewSalt()
	if err != nil {
		return domain.PublicKeys{}, err
	}
	key := crypto.DeriveKey(passphrase, salt)
	defer memzero.Zero(key)

	kemBox, err := crypto.Seal(key, kemPriv)
	if err != nil {
		return domain.PublicKeys{}, fmt.Errorf("seal kem key: %w", err)
	}
	sigBox, err := crypto.Seal(key, sigPriv)
	if err != nil {
		return domain.PublicKeys{}, fmt.Errorf("seal signing key: %w", err)
	}

	rec := domain.IdentityRecord{
		UserID:           user,
		KEMPublicKey:     kemPub,
		SigningPublicKey: sigPub,
		KEMSecret:        kemBox,
		SigningSecret:    sigBox,
		Salt:             salt,
		CreatedUTC:       s.now().UTC().Unix(),
	}
	if err := s.store.SaveIdentity(ctx, rec); err != nil {
		return domain.PublicKeys{}, fmt.Errorf("save identity: %w", err)
	}
	s.log.Info("identity generated", "user", user, "fingerprint", crypto.Fingerprint(kemPub, sigPub))
	return domain.PublicKeys{UserID: user, KEM: kemPub, Signing: sigPub}, nil
}

func (s *Service) record(ctx context.Context, user domain.UserID) (domain.IdentityRecord, error) {
	if err := domain.ValidateUserID(user); err != nil {
		return domain.IdentityRecord{}, err
	}
	rec, ok, err := s.store.LoadIdentity(ctx, user)
	if err != nil {
		return domain.IdentityRecord{}, fmt.Errorf("load identity: %w", err)
	}
	if !ok {
		return domain.IdentityRecord{}, fmt.Errorf("identity %q: %w", user, domain.ErrNotFound)
	}
	return rec, nil
}

// LoadIdentity unseals the identity of user. A wrong passphrase fails the
// AEAD tag check and yields ErrAuthentication.
func (s *Service) LoadIdentity(
	ctx context.Context,
	user domain.UserID,
	passphrase string,
) (domain.Identity, error) {
	if passphrase == "" {
		return domain.Identity{}, fmt.Errorf("passphrase is empty: %w", domain.ErrValidation)
	}
	rec, err := s.record(ctx, user)
	if err != nil {
		return domain.Identity{}, err
	}

	key := crypto.DeriveKey(passphrase, rec.Salt)
	defer memzero.Zero(key)

	kemPriv, err := crypto.Open(key, rec.KEMSecret)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("unseal kem key (wrong passphrase?): %w", err)
	}
	sigPriv, err := crypto.Open(key, rec.SigningSecret)
	if err != nil {
		memzero.Zero(kemPriv)
		return domain.Identity{}, fmt.Errorf("unseal signing key (wrong passphrase?): %w", err)
	}
	return domain.Identity{
		UserID:            rec.UserID,
		KEMPublicKey:      rec.KEMPublicKey,
		KEMPrivateKey:     kemPriv,
		SigningPublicKey:  rec.SigningPublicKey,
		SigningPrivateKey: sigPriv,
	}, nil
}

// IdentityExists reports whether user has a stored identity.
func (s *Service) IdentityExists(ctx context.Context, user domain.UserID) (bool, error) {
	if err := domain.ValidateUserID(user); err != nil {
		return false, err
	}
	_, ok, err := s.store.LoadIdentity(ctx, user)
	return ok, err
}

// PublicKeys returns the public half of user's identity without a passphrase.
func (s *Service) PublicKeys(ctx context.Context, user domain.UserID) (domain.PublicKeys, error) {
	rec, err := s.record(ctx, user)
	if err != nil {
		return domain.PublicKeys{}, err
	}
	return domain.PublicKeys{UserID: rec.UserID, KEM: rec.KEMPublicKey, Signing: rec.SigningPublicKey}, nil
}

// Fingerprint returns a short fingerprint over both public keys of user.
func (s *Service) Fingerprint(ctx context.Context, user domain.UserID) (domain.Fingerprint, error) {
	pub, err := s.PublicKeys(ctx, user)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(pub.KEM, pub.Signing), nil
}

// Open unseals the identity and wraps it in an Account for one connection.
// The caller must Close the account when the connection ends.
func (s *Service) Open(
	ctx context.Context,
	user domain.UserID,
	passphrase string,
) (*domain.Account, error) {
	id, err := s.LoadIdentity(ctx, user, passphrase)
	if err != nil {
		return nil, err
	}
	return domain.NewAccount(id, passphrase), nil
}

// Publish pushes user's public keys to the directory.
func (s *Service) Publish(ctx context.Context, user domain.UserID) error {
	if s.directory == nil {
		return fmt.Errorf("no directory configured: %w", domain.ErrTransport)
	}
	pub, err := s.PublicKeys(ctx, user)
	if err != nil {
		return err
	}
	if err := s.directory.Publish(ctx, pub); err != nil {
		return fmt.Errorf("publish keys: %w", err)
	}
	s.log.Info("public keys published", "user", user)
	return nil
}

// DeleteIdentity wipes user's identity, sessions and history from the store.
func (s *Service) DeleteIdentity(ctx context.Context, user domain.UserID) error {
	if err := domain.ValidateUserID(user); err != nil {
		return err
	}
	if err := s.store.DeleteIdentity(ctx, user); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	s.log.Warn("identity deleted", "user", user)
	return nil
}

// CheckPassphrase enforces the strength policy used when creating identities
// interactively.
func CheckPassphrase(passphrase string) error {
	if !isSecurePassphrase(passphrase) {
		return ErrWeakPassphrase
	}
	return nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
