package auth

import (
	"context"
	"errors"
	"testing"

	"questlog/api/internal/store"
)

type fakeTokenStore struct {
	tokens  []store.CompanionToken
	touched []string
}

func (f *fakeTokenStore) ListActiveCompanionTokens(context.Context) ([]store.CompanionToken, error) {
	return f.tokens, nil
}

func (f *fakeTokenStore) TouchCompanionToken(_ context.Context, tokenID string) error {
	f.touched = append(f.touched, tokenID)
	return nil
}

func TestNewCompanionTokenFormat(t *testing.T) {
	raw, hint := NewCompanionToken()
	if !companionTokenPattern.MatchString(raw) {
		t.Fatalf("token %q does not match cmp_<32 hex>", raw)
	}
	if hint != raw[len(raw)-4:] {
		t.Fatalf("hint = %q, want last four characters of token", hint)
	}
}

func TestCompanionValidate(t *testing.T) {
	raw, _ := NewCompanionToken()
	hash, err := HashCompanionToken(raw)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}

	ts := &fakeTokenStore{tokens: []store.CompanionToken{
		{ID: "tok-1", UserID: "user-1", TokenHash: hash, DeviceName: "desktop", GameMode: "PVP"},
	}}
	validator := NewCompanionValidator(ts)

	device, err := validator.Validate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if device.UserID != "user-1" || device.TokenID != "tok-1" {
		t.Fatalf("unexpected device: %+v", device)
	}
	if len(ts.touched) != 1 || ts.touched[0] != "tok-1" {
		t.Fatalf("last_seen not touched: %v", ts.touched)
	}
}

func TestCompanionValidateRejectsBadFormat(t *testing.T) {
	validator := NewCompanionValidator(&fakeTokenStore{})
	_, err := validator.Validate(context.Background(), "Bearer-junk")
	if !errors.Is(err, ErrInvalidCompanionToken) {
		t.Fatalf("err = %v, want ErrInvalidCompanionToken", err)
	}
}

func TestCompanionValidateRejectsUnknownToken(t *testing.T) {
	raw, _ := NewCompanionToken()
	hash, err := HashCompanionToken(raw)
	if err != nil {
		t.Fatal(err)
	}
	validator := NewCompanionValidator(&fakeTokenStore{tokens: []store.CompanionToken{
		{ID: "tok-1", UserID: "user-1", TokenHash: hash},
	}})

	other, _ := NewCompanionToken()
	_, err = validator.Validate(context.Background(), other)
	if !errors.Is(err, ErrInvalidCompanionToken) {
		t.Fatalf("err = %v, want ErrInvalidCompanionToken", err)
	}
}
