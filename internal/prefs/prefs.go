// Package prefs persists per-user foreground preferences in
// ~/.config/moviesync/prefs.toml.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Notification permission states.
const (
	PermissionDefault = "default"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

const defaultPrefsPath = "~/.config/moviesync/prefs.toml"

// Prefs holds user preferences.
type Prefs struct {
	Notifications string `toml:"notifications"`
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// NotificationsGranted reports whether the user allowed notifications.
func (p Prefs) NotificationsGranted() bool {
	return p.Notifications == PermissionGranted
}

// Load reads preferences from path. A missing or unreadable file yields defaults.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Notifications: PermissionDefault}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Prefs{Notifications: PermissionDefault}, nil
	}

	switch strings.TrimSpace(prefs.Notifications) {
	case PermissionGranted, PermissionDenied:
	default:
		prefs.Notifications = PermissionDefault
	}
	return prefs, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// SetNotifications updates the notification permission stored at path.
func SetNotifications(path, state string) error {
	switch state {
	case PermissionDefault, PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("invalid notification permission %q", state)
	}
	p, _ := Load(path)
	p.Notifications = state
	return Save(path, p)
}

// Permission reads the notification permission from a prefs file on every
// check, so a grant made by the foreground is seen by a running background
// process without a restart.
type Permission struct {
	Path string
}

// NotificationsGranted implements notify.PermissionSource.
func (p Permission) NotificationsGranted(ctx context.Context) bool {
	prefs, _ := Load(p.Path)
	return prefs.NotificationsGranted()
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
