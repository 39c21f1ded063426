// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/taibuivan/aegis/internal/platform/constants"
)

// # Secret Errors

var (
	// ErrSecretMissing marks a named secret that is unset or blank in the environment.
	ErrSecretMissing = errors.New("secret missing")

	// ErrSecretInvalid marks a secret that is present but violates its policy.
	ErrSecretInvalid = errors.New("secret invalid")
)

// SecretsProvider reads named secrets from the deployment environment.
//
// # Why not the config package?
//
// Cryptographic material never travels through the parsed configuration
// struct: it is read exactly once at initialization, validated here, and held
// only as derived key state. Keeping secrets out of [config.Config] keeps them
// out of any config dump or log.
type SecretsProvider struct {
	// lookup resolves a name to its raw value. Defaults to the process
	// environment; tests substitute a map-backed function.
	lookup func(name string) (string, bool)
}

// NewSecretsProvider creates a provider backed by the process environment.
func NewSecretsProvider() *SecretsProvider {
	return &SecretsProvider{lookup: os.LookupEnv}
}

// NewSecretsProviderFrom creates a provider backed by an explicit lookup,
// used by tests to avoid touching the real environment.
func NewSecretsProviderFrom(lookup func(name string) (string, bool)) *SecretsProvider {
	return &SecretsProvider{lookup: lookup}
}

// Get fetches a named secret.
// It fails with [ErrSecretMissing] when the variable is unset or blank.
func (provider *SecretsProvider) Get(name string) (string, error) {
	value, found := provider.lookup(name)
	if !found || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("sec_secret_get %q: %w", name, ErrSecretMissing)
	}
	return value, nil
}

// SigningSecret fetches the JWT signing material from JWT_SECRET and enforces
// the minimum length policy. Anything shorter than 32 bytes weakens HS256
// below its nominal strength and is rejected with [ErrSecretInvalid].
func (provider *SecretsProvider) SigningSecret() ([]byte, error) {
	value, err := provider.Get("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if len(value) < constants.MinSigningSecretBytes {
		return nil, fmt.Errorf("sec_signing_secret: need at least %d bytes, got %d: %w",
			constants.MinSigningSecretBytes, len(value), ErrSecretInvalid)
	}

	return []byte(value), nil
}
