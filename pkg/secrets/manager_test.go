package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/recoverydesk/pkg/logger"
)

type fakeSecretsAPI struct {
	secretsmanageriface.SecretsManagerAPI
	values map[string]string
	calls  map[string]int
}

func (f *fakeSecretsAPI) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	id := aws.StringValue(in.SecretId)
	f.calls[id]++
	v, ok := f.values[id]
	if !ok {
		return nil, awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "no such secret", nil)
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestEnvironmentManager(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	m := NewEnvironmentManager(DefaultConfig())
	ctx := context.Background()

	v, err := m.GetSecret(ctx, "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	// cached until refreshed
	t.Setenv("JWT_SECRET", "rotated")
	v, _ = m.GetSecret(ctx, "JWT_SECRET")
	assert.Equal(t, "from-env", v)

	require.NoError(t, m.RefreshCache(ctx))
	v, _ = m.GetSecret(ctx, "JWT_SECRET")
	assert.Equal(t, "rotated", v)

	_, err = m.GetSecret(ctx, "RECOVERYDESK_UNSET_SECRET")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAWSManager(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{
		"recoverydesk/test/JWT_SECRET": "aws-secret",
		"recoverydesk/test/REDIS_URL":  `{"REDIS_URL":"redis://cache:6379","OTHER":"x"}`,
		"recoverydesk/test/SENTRY_DSN": `{"OTHER":"x"}`,
	}}
	cfg := Config{Prefix: "recoverydesk/test/", CacheDuration: time.Minute}
	m := NewAWSManager(api, cfg)
	ctx := context.Background()

	v, err := m.GetSecret(ctx, "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "aws-secret", v)
	_, _ = m.GetSecret(ctx, "JWT_SECRET")
	assert.Equal(t, 1, api.calls["recoverydesk/test/JWT_SECRET"])

	v, err = m.GetSecret(ctx, "REDIS_URL")
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379", v)

	_, err = m.GetSecret(ctx, "SENTRY_DSN")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetSecret(ctx, "DATABASE_URL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewManager(t *testing.T) {
	m, err := NewManager(Config{Backend: BackendEnv}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &EnvironmentManager{}, m)

	_, err = NewManager(Config{Backend: "vault"}, logger.Nop())
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	api := &fakeSecretsAPI{values: map[string]string{
		"JWT_SECRET":   "s3cr3t",
		"DATABASE_URL": "postgres://db/recoverydesk",
		"SENTRY_DSN":   "https://key@sentry.example.com/1",
	}}

	s, err := Load(ctx, NewAWSManager(api, Config{}))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", s.JWTSecret)
	assert.Equal(t, "postgres://db/recoverydesk", s.DatabaseURL)
	assert.Equal(t, "https://key@sentry.example.com/1", s.SentryDSN)
	assert.Empty(t, s.RedisURL)

	delete(api.values, "DATABASE_URL")
	_, err = Load(ctx, NewAWSManager(api, Config{}))
	assert.ErrorIs(t, err, ErrNotFound)
}
