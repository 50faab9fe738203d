package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	wantDir := filepath.Join(tmp, "xrag")
	if dir != wantDir {
		t.Fatalf("DataDir() = %q, want %q", dir, wantDir)
	}

	wantPath := filepath.Join(tmp, "xrag", "auth.json")
	if got := FilePath(); got != wantPath {
		t.Fatalf("FilePath() = %q, want %q", got, wantPath)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	store := Store{
		"openai": {Key: "sk-apikey123456", BaseURL: "http://localhost:11434/v1"},
		"gemini": {Key: "gm-key"},
	}

	if err := Save(store); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	path := filepath.Join(tmp, "xrag", "auth.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	loaded := Load()
	if got := loaded.Providers(); !reflect.DeepEqual(got, []string{"gemini", "openai"}) {
		t.Fatalf("Providers() = %v", got)
	}
	if GetAPIKey("openai") != "sk-apikey123456" || GetBaseURL("openai") != "http://localhost:11434/v1" {
		t.Fatalf("openai entry = %#v", loaded["openai"])
	}

	if err := Remove("openai"); err != nil {
		t.Fatalf("Remove(openai) error: %v", err)
	}
	if got := GetAPIKey("openai"); got != "" {
		t.Fatalf("GetAPIKey after remove = %q, want empty", got)
	}
	if GetAPIKey("gemini") != "gm-key" {
		t.Fatalf("gemini key should remain after removing openai")
	}

	if err := Remove("missing-provider"); err != nil {
		t.Fatalf("Remove(missing) should be no-op, got: %v", err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("auth.json should be removed, stat err=%v", err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() after RemoveAll should be empty, got=%#v", got)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir := filepath.Join(tmp, "xrag")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "auth.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() of invalid file = %#v, want empty", got)
	}
}

func TestResolveAPIKeyPriority(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	t.Setenv(EnvAPIKey, "")
	t.Setenv("OPENAI_API_KEY", "")

	if key, src := ResolveAPIKey("openai", ""); key != "" || src != "" {
		t.Fatalf("nothing configured, got %q from %q", key, src)
	}

	if err := SetAPIKey("openai", "stored-key", ""); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if key, src := ResolveAPIKey("openai", ""); key != "stored-key" || src != "store" {
		t.Fatalf("stored key expected, got %q from %q", key, src)
	}

	t.Setenv("OPENAI_API_KEY", "provider-env")
	if key, src := ResolveAPIKey("openai", ""); key != "provider-env" || src != "OPENAI_API_KEY" {
		t.Fatalf("provider env should win over store, got %q from %q", key, src)
	}

	t.Setenv(EnvAPIKey, "xrag-env")
	if key, _ := ResolveAPIKey("openai", ""); key != "xrag-env" {
		t.Fatalf("XRAG_API_KEY should win over provider env, got %q", key)
	}

	if key, src := ResolveAPIKey("openai", "flag-key"); key != "flag-key" || src != "flag" {
		t.Fatalf("flag should win, got %q from %q", key, src)
	}
}

func TestResolveAPIKeyGeminiFallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(EnvAPIKey, "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	if key, src := ResolveAPIKey("gemini", ""); key != "google-key" || src != "GOOGLE_API_KEY" {
		t.Fatalf("got %q from %q", key, src)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Fatalf("MaskKey(short) = %q, want ****", got)
	}
	if got := MaskKey("12345678"); got != "****" {
		t.Fatalf("MaskKey(8 chars) = %q, want ****", got)
	}
	if got := MaskKey("123456789"); got != "1234...6789" {
		t.Fatalf("MaskKey(9 chars) = %q, want 1234...6789", got)
	}
}
