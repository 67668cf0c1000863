package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"backend-discoverudupi/internal/auth"
)

// sessionFile persists the signed-in session as JSON.
type sessionFile struct {
	path string
}

// Load returns nil when no session has been saved.
func (f *sessionFile) Load() (*auth.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s auth.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", f.path, err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *sessionFile) Save(s *auth.Session) error {
	if s == nil {
		return f.Clear()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *sessionFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
