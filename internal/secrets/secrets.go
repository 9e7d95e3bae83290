// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API keys and credentials for the pipeline
// backends. Values come from a directory of plain-text files, one secret
// per file, overlaid by the conventional environment variables: the file
// gemini-api-key and the variable GEMINI_API_KEY name the same secret.
//
// Supported key files: anthropic-api-key, gemini-api-key, openai-api-key,
// semantic-scholar-api-key, contact-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store holds the secrets loaded from one directory. Lookups are
// case-insensitive and treat dashes and underscores as equivalent, so
// callers may use either the file name or the environment variable form.
type Store struct {
	values map[string]string
}

// Load reads every regular file in dir into a Store: the filename is the
// key and the trimmed contents are the value. A missing directory is not
// an error; Load returns an empty store. Unreadable files produce a
// warning on stderr but do not abort. Dotfiles and subdirectories are
// skipped.
func Load(dir string) (*Store, error) {
	s := &Store{values: make(map[string]string)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			s.values[canonical(name)] = value
		}
	}

	return s, nil
}

// Get returns the stored value for key, or "" when the key is absent.
// The key may be given in file form (gemini-api-key) or environment form
// (GEMINI_API_KEY).
func (s *Store) Get(key string) string {
	return s.values[canonical(key)]
}

// Resolve picks the value for key by precedence: the explicit value when
// non-empty, then the key's environment variable, then the loaded file.
func (s *Store) Resolve(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(envName(key)); v != "" {
		return v
	}
	return s.Get(key)
}

// Keys lists the loaded key names in file form, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len reports how many secrets were loaded.
func (s *Store) Len() int {
	return len(s.values)
}

// canonical maps a key to its storage form: lowercase with dashes.
func canonical(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// envName maps a key to its environment variable form: uppercase with
// underscores.
func envName(key string) string {
	return strings.ReplaceAll(strings.ToUpper(key), "-", "_")
}
