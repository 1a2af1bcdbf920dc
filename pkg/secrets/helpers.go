package secrets

import (
	"context"
	"errors"
	"fmt"
)

// Secrets holds the credentials the service needs at startup. Empty optional
// values mean "keep the configured default".
type Secrets struct {
	JWTSecret          string
	DatabaseURL        string
	RedisURL           string
	SentryDSN          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// LoadString loads a secret as a string with optional fallback
func LoadString(ctx context.Context, m Manager, key, fallback string) (string, error) {
	value, err := m.GetSecret(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	return value, err
}

// LoadStringRequired loads a required secret (fails if not found)
func LoadStringRequired(ctx context.Context, m Manager, key string) (string, error) {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return "", fmt.Errorf("required secret %s: %w", key, err)
	}
	return value, nil
}

// Load reads the startup secrets. JWT_SECRET and DATABASE_URL are required.
func Load(ctx context.Context, m Manager) (*Secrets, error) {
	s := &Secrets{}
	var err error

	if s.JWTSecret, err = LoadStringRequired(ctx, m, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if s.DatabaseURL, err = LoadStringRequired(ctx, m, "DATABASE_URL"); err != nil {
		return nil, err
	}

	optional := []struct {
		key string
		dst *string
	}{
		{"REDIS_URL", &s.RedisURL},
		{"SENTRY_DSN", &s.SentryDSN},
		{"AWS_ACCESS_KEY_ID", &s.AWSAccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", &s.AWSSecretAccessKey},
	}
	for _, o := range optional {
		if *o.dst, err = LoadString(ctx, m, o.key, ""); err != nil {
			return nil, err
		}
	}
	return s, nil
}
