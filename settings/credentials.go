// Package settings stores xrag user credentials outside the project tree.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/xrag/auth.json  (default: ~/.local/share/xrag/auth.json)
//
// The file is a JSON object keyed by provider name ("openai", "gemini").
// Each entry holds an API key and, for OpenAI-compatible servers, a base
// URL. File permissions are 0600 (owner read/write only).
//
// Lookup order for API keys (see ResolveAPIKey):
//  1. --api-key flag / api_key config value (highest priority)
//  2. XRAG_API_KEY environment variable
//  3. the provider's own variable (OPENAI_API_KEY, GEMINI_API_KEY)
//  4. this credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName = "xrag"
	fileName    = "auth.json"
)

// EnvAPIKey overrides stored keys for every provider.
const EnvAPIKey = "XRAG_API_KEY"

// providerEnv lists the conventional key variables per provider, checked in
// order.
var providerEnv = map[string][]string{
	"openai": {"OPENAI_API_KEY"},
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Info is the entry stored per provider in auth.json.
type Info struct {
	// Key is the API key.
	Key string `json:"key"`
	// BaseURL points an OpenAI-compatible provider at a custom server.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider name.
type Store map[string]*Info

// Providers returns the provider names present in the store, sorted.
func (s Store) Providers() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for xrag.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the xrag data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a provider, or nil if not found.
func Get(provider string) *Info {
	return Load()[provider]
}

// SetAPIKey stores an API key (and optional base URL) for a provider.
func SetAPIKey(provider, key, baseURL string) error {
	store := Load()
	store[provider] = &Info{Key: key, BaseURL: baseURL}
	return Save(store)
}

// GetAPIKey retrieves the stored API key for a provider, or "".
func GetAPIKey(provider string) string {
	if info := Get(provider); info != nil {
		return info.Key
	}
	return ""
}

// GetBaseURL retrieves the stored base URL for a provider, or "".
func GetBaseURL(provider string) string {
	if info := Get(provider); info != nil {
		return info.BaseURL
	}
	return ""
}

// Remove deletes credentials for a provider.
func Remove(provider string) error {
	store := Load()
	if _, ok := store[provider]; !ok {
		return nil
	}
	delete(store, provider)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ResolveAPIKey returns the key to use for provider and where it came from
// ("flag", an environment variable name, "store"), following the lookup
// order in the package doc. explicit is the flag or config value.
func ResolveAPIKey(provider, explicit string) (key, source string) {
	if explicit != "" {
		return explicit, "flag"
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v, EnvAPIKey
	}
	for _, env := range providerEnv[provider] {
		if v := os.Getenv(env); v != "" {
			return v, env
		}
	}
	if v := GetAPIKey(provider); v != "" {
		return v, "store"
	}
	return "", ""
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
