package llm

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultEnvVar is the environment variable holding the API key.
	DefaultEnvVar = "GROQ_API_KEY"
	// DefaultSecretsKey is the key looked up in the secrets file.
	DefaultSecretsKey = "groq_api_key"
)

// CredentialSource yields the API key for the completion endpoint.
type CredentialSource interface {
	APIKey() (string, error)
}

// StaticKey is a fixed credential, mostly useful in tests.
type StaticKey string

// APIKey returns the key, or ErrNoCredential when it is empty.
func (k StaticKey) APIKey() (string, error) {
	if k == "" {
		return "", ErrNoCredential
	}
	return string(k), nil
}

// EnvSecrets resolves the key from the environment first and then from a
// secrets file (TOML, YAML or JSON, chosen by extension).
type EnvSecrets struct {
	EnvVar      string
	SecretsFile string
	SecretsKey  string
}

// APIKey looks up the key on every call so that a rotated secret is picked up
// without a restart.
func (s EnvSecrets) APIKey() (string, error) {
	envVar := s.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if k := strings.TrimSpace(os.Getenv(envVar)); k != "" {
		return k, nil
	}

	if s.SecretsFile == "" {
		return "", ErrNoCredential
	}
	key := s.SecretsKey
	if key == "" {
		key = DefaultSecretsKey
	}

	v := viper.New()
	v.SetConfigFile(s.SecretsFile)
	if err := v.ReadInConfig(); err != nil {
		slog.Debug("secrets file not readable", "path", s.SecretsFile, "error", err)
		return "", ErrNoCredential
	}
	if k := strings.TrimSpace(v.GetString(key)); k != "" {
		return k, nil
	}
	slog.Warn("secrets file has no API key", "path", s.SecretsFile, "key", key)
	return "", ErrNoCredential
}
