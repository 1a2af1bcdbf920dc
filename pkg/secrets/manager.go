// Package secrets resolves credentials from the environment or from AWS
// Secrets Manager, with a short-lived in-process cache.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"

	"github.com/jordanlanch/recoverydesk/pkg/logger"
)

// Backends
const (
	BackendEnv = "env"
	BackendAWS = "aws"
)

// ErrNotFound is returned when a secret has no value.
var ErrNotFound = errors.New("secret not found")

// Manager defines the interface for secrets management
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// RefreshCache drops every cached value
	RefreshCache(ctx context.Context) error
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string        // "env" or "aws"
	AWSRegion     string        // AWS region for Secrets Manager
	Prefix        string        // prepended to every key looked up in AWS, e.g. "recoverydesk/prod/"
	CacheDuration time.Duration // How long to cache secrets
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Backend:       BackendEnv,
		AWSRegion:     "ap-south-1",
		CacheDuration: 5 * time.Minute,
	}
}

// NewManager creates a new secrets manager based on configuration
func NewManager(cfg Config, log logger.Logger) (Manager, error) {
	switch cfg.Backend {
	case BackendAWS, "aws-secrets-manager":
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		log.Info("using AWS Secrets Manager", "region", cfg.AWSRegion, "prefix", cfg.Prefix)
		return NewAWSManager(secretsmanager.New(sess), cfg), nil
	case "", BackendEnv, "environment":
		return NewEnvironmentManager(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// cache is shared by both managers.
type cache struct {
	mu      sync.RWMutex
	entries map[string]cachedSecret
	ttl     time.Duration
	now     func() time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{entries: make(map[string]cachedSecret), ttl: ttl, now: time.Now}
}

func (c *cache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

func (c *cache) set(key, value string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedSecret)
}

// EnvironmentManager loads secrets from environment variables
type EnvironmentManager struct {
	cache *cache
}

// NewEnvironmentManager creates a new environment-based secrets manager
func NewEnvironmentManager(cfg Config) *EnvironmentManager {
	return &EnvironmentManager{cache: newCache(cfg.CacheDuration)}
}

// GetSecret retrieves a secret from environment variables
func (m *EnvironmentManager) GetSecret(_ context.Context, key string) (string, error) {
	if value, ok := m.cache.get(key); ok {
		return value, nil
	}
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	m.cache.set(key, value)
	return value, nil
}

// RefreshCache clears the cache (forces reload on next access)
func (m *EnvironmentManager) RefreshCache(context.Context) error {
	m.cache.clear()
	return nil
}

// AWSManager loads secrets from AWS Secrets Manager. A secret holding a JSON
// object is unpacked so that each of its keys can be looked up by name.
type AWSManager struct {
	client secretsmanageriface.SecretsManagerAPI
	prefix string
	cache  *cache
}

// NewAWSManager wraps an AWS Secrets Manager client.
func NewAWSManager(client secretsmanageriface.SecretsManagerAPI, cfg Config) *AWSManager {
	return &AWSManager{client: client, prefix: cfg.Prefix, cache: newCache(cfg.CacheDuration)}
}

// GetSecret retrieves a secret from AWS Secrets Manager
func (m *AWSManager) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := m.cache.get(key); ok {
		return value, nil
	}

	result, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.prefix + key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}
	if result.SecretString == nil || *result.SecretString == "" {
		return "", fmt.Errorf("%w: %s has no string value", ErrNotFound, key)
	}

	value := *result.SecretString
	var bundle map[string]string
	if json.Unmarshal([]byte(value), &bundle) == nil {
		v, ok := bundle[key]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %s missing from secret bundle", ErrNotFound, key)
		}
		value = v
	}

	m.cache.set(key, value)
	return value, nil
}

// RefreshCache forces a reload of all cached secrets
func (m *AWSManager) RefreshCache(context.Context) error {
	m.cache.clear()
	return nil
}
