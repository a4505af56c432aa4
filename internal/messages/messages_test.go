package messages

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Greeting != Defaults().Greeting {
		t.Errorf("expected default greeting, got %q", m.Greeting)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yml")
	content := "greeting: \"Welcome!\"\nbutton_begin: \"Go\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Greeting != "Welcome!" {
		t.Errorf("greeting not overridden: %q", m.Greeting)
	}

	if m.ButtonBegin != "Go" {
		t.Errorf("button not overridden: %q", m.ButtonBegin)
	}

	if m.Help != Defaults().Help {
		t.Errorf("unset key should keep default, got %q", m.Help)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yml")
	if err := os.WriteFile(path, []byte("greeting: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	m, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.ButtonSendNoText == "" {
		t.Error("defaults should be populated")
	}
}
