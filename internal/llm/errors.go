package llm

import (
	"errors"
	"fmt"
)

// ErrNoCredential is returned by credential sources that found no API key.
var ErrNoCredential = errors.New("no API key in environment or secrets file")

// ConfigurationError indicates the gateway could not build a client,
// usually because no credential is configured.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM client not initialized: %v", e.Err)
	}
	return "LLM client not initialized"
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UpstreamError wraps a transport or provider failure.
type UpstreamError struct {
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("LLM API call (model %s): %v", e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
