// Package config resolves the provider credential and loads service settings.
package config

import (
	"os"
	"strings"
)

// CredentialEnv is the environment variable holding the Gemini API key.
const CredentialEnv = "GEMINI_API_KEY"

// buildCredential is set at link time:
//
//	go build -ldflags "-X github.com/abdhe/inspirai/pkg/config.buildCredential=..."
var buildCredential string

// ConfigurationError means no credential was available from any source.
type ConfigurationError struct {
	Variable string
}

func (e *ConfigurationError) Error() string {
	return e.Variable + " is required but not provided"
}

// Resolver looks up the provider credential. The zero value is not usable;
// call NewResolver.
type Resolver struct {
	build  string
	lookup func(string) (string, bool)
}

// NewResolver returns a resolver reading the link-time value first and the
// process environment second.
func NewResolver() *Resolver {
	return &Resolver{build: buildCredential, lookup: os.LookupEnv}
}

// NewResolverFrom builds a resolver over explicit sources. lookup may be nil,
// in which case only the build value is consulted.
func NewResolverFrom(build string, lookup func(string) (string, bool)) *Resolver {
	return &Resolver{build: build, lookup: lookup}
}

// Resolve returns the first non-empty credential. The environment is read on
// every call so a rotated key is picked up without a restart.
func (r *Resolver) Resolve() (string, error) {
	if v := strings.TrimSpace(r.build); v != "" {
		return v, nil
	}
	if r.lookup != nil {
		if v, ok := r.lookup(CredentialEnv); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
	}
	return "", &ConfigurationError{Variable: CredentialEnv}
}
