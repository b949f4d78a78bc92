package auth

import (
	"context"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"questlog/api/internal/store"
	"questlog/api/internal/util"
)

// Companion tokens are cmp_ followed by 32 hex characters, shown to the
// user exactly once at link time and stored only as a bcrypt hash.
var companionTokenPattern = regexp.MustCompile(`^cmp_[a-f0-9]{32}$`)

var ErrInvalidCompanionToken = errors.New("invalid or revoked companion token")

// CompanionDevice is the identity a valid companion token resolves to.
type CompanionDevice struct {
	UserID     string
	TokenID    string
	DeviceName string
	GameMode   string
}

// NewCompanionToken generates a raw companion token and its display
// hint (the last four characters).
func NewCompanionToken() (raw, hint string) {
	raw = "cmp_" + util.RandomHex(16)
	return raw, raw[len(raw)-4:]
}

// HashCompanionToken hashes a raw token for storage.
func HashCompanionToken(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompanionTokenStore is the slice of the data store companion
// validation needs.
type CompanionTokenStore interface {
	ListActiveCompanionTokens(ctx context.Context) ([]store.CompanionToken, error)
	TouchCompanionToken(ctx context.Context, tokenID string) error
}

// CompanionValidator checks raw companion tokens against stored hashes.
type CompanionValidator struct {
	store CompanionTokenStore
}

func NewCompanionValidator(tokenStore CompanionTokenStore) *CompanionValidator {
	return &CompanionValidator{store: tokenStore}
}

// Validate resolves a raw token to a device. bcrypt hashes cannot be
// queried directly, so this compares against every active token: O(n)
// bcrypt work, acceptable at a handful of devices per user. The matched
// token's last_seen is touched as a side effect; a failure there does
// not fail validation.
func (v *CompanionValidator) Validate(ctx context.Context, raw string) (CompanionDevice, error) {
	if !companionTokenPattern.MatchString(raw) {
		return CompanionDevice{}, ErrInvalidCompanionToken
	}

	tokens, err := v.store.ListActiveCompanionTokens(ctx)
	if err != nil {
		return CompanionDevice{}, err
	}

	for _, record := range tokens {
		if bcrypt.CompareHashAndPassword([]byte(record.TokenHash), []byte(raw)) != nil {
			continue
		}
		_ = v.store.TouchCompanionToken(ctx, record.ID)
		return CompanionDevice{
			UserID:     record.UserID,
			TokenID:    record.ID,
			DeviceName: record.DeviceName,
			GameMode:   record.GameMode,
		}, nil
	}

	return CompanionDevice{}, ErrInvalidCompanionToken
}
