/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

// Package secrets resolves the relay secret from the source named in the
// configuration and manages entries in the OS keyring.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/telekom/relaynotify/pkg/config"
)

var (
	ErrNoSource = errors.New("no secret source configured")
	ErrNotFound = errors.New("secret not found")
)

// Resolve returns the secret named by src. An empty source yields an empty
// secret, which is what an unauthenticated relay needs.
func Resolve(src config.SecretSource) (string, error) {
	switch {
	case src.Value != "":
		return src.Value, nil
	case src.Env != "":
		v, ok := os.LookupEnv(src.Env)
		if !ok || v == "" {
			return "", fmt.Errorf("environment variable %s: %w", src.Env, ErrNotFound)
		}
		return v, nil
	case src.File != "":
		content, err := os.ReadFile(src.File)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		v := strings.TrimRight(string(content), "\r\n")
		if v == "" {
			return "", fmt.Errorf("secret file %s is empty: %w", src.File, ErrNotFound)
		}
		return v, nil
	case src.Keyring != nil:
		return Get(src.Keyring.Service, src.Keyring.User)
	default:
		return "", nil
	}
}

// Get reads a secret from the OS keyring.
func Get(service, user string) (string, error) {
	if service == "" || user == "" {
		return "", fmt.Errorf("keyring lookup needs service and user: %w", ErrNoSource)
	}
	v, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring %s/%s: %w", service, user, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("keyring %s/%s: %w", service, user, err)
	}
	return v, nil
}

// Store writes a secret into the OS keyring, replacing any previous value.
func Store(service, user, secret string) error {
	if service == "" || user == "" {
		return fmt.Errorf("keyring store needs service and user: %w", ErrNoSource)
	}
	if secret == "" {
		return errors.New("refusing to store an empty secret")
	}
	return keyring.Set(service, user, secret)
}

// Delete removes a secret from the OS keyring.
func Delete(service, user string) error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring %s/%s: %w", service, user, ErrNotFound)
	}
	return err
}
