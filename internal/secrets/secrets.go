// Package secrets resolves API credentials by logical name.
//
// Production reads from Google Secret Manager; local runs can fall back to
// environment variables or a directory of plain-text files where the file
// name is the secret name and the trimmed contents are the value.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no source holds a non-empty value.
var ErrNotFound = errors.New("secret not found")

// Source fetches a secret value by name.
type Source interface {
	FetchSecret(ctx context.Context, name string) (string, error)
}

// EnvSource reads secrets from environment variables of the same name.
type EnvSource struct {
	lookup func(string) (string, bool)
}

func NewEnvSource() *EnvSource {
	return &EnvSource{lookup: os.LookupEnv}
}

func (s *EnvSource) FetchSecret(_ context.Context, name string) (string, error) {
	value, ok := s.lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", fmt.Errorf("env %s: %w", name, ErrNotFound)
	}
	return value, nil
}

// DirSource reads secrets from files in Dir.
type DirSource struct {
	Dir string
}

func (s DirSource) FetchSecret(_ context.Context, name string) (string, error) {
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("reading secret %s: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("file %s: %w", name, ErrNotFound)
	}
	return value, nil
}

// Chain tries each source in order and returns the first non-empty value.
type Chain []Source

func (c Chain) FetchSecret(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, source := range c {
		value, err := source.FetchSecret(ctx, name)
		if err == nil && value != "" {
			return value, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return "", errors.Join(errs...)
}
