package credentials

import (
	"context"
	"fmt"
	"strings"

	"engine/internal/infra"
	"engine/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderKie    = "kie"
)

// Store reads and writes provider API keys kept in provider_keys.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	var key string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider).Scan(&key); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// SetToken upserts the key for provider and records where it came from.
func (s *Store) SetToken(ctx context.Context, provider, token, source string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, provider, token, strings.TrimSpace(source))
	return err
}

// Clear removes the stored key for provider. Clearing an absent key is not an error.
func (s *Store) Clear(ctx context.Context, provider string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QDeleteProviderKey, provider)
	return err
}

// Resolve returns configured when it is set and falls back to the stored key.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	return s.Token(ctx, provider)
}

// Supported reports whether provider names a known credential slot.
func Supported(provider string) bool {
	return provider == ProviderGemini || provider == ProviderKie
}

func normalizeProvider(provider string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if !Supported(p) {
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
	return p, nil
}
