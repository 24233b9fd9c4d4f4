package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const embeddedCatalog = "../../pkg/catalog/data/catalog.yaml"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestValidateFile_EmbeddedCatalog(t *testing.T) {
	v := &CatalogValidator{}
	if err := v.validateFile(embeddedCatalog); err != nil {
		t.Fatalf("embedded catalog should be valid: %v", err)
	}
}

func TestValidateFile_Rejects(t *testing.T) {
	data, err := os.ReadFile(embeddedCatalog)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"wrong extension", "catalog.json", "{}", "extension"},
		{"unknown field", "catalog.yaml", "scenarios: []\nbogus: 1\n", "strict YAML"},
		{"empty catalog", "catalog.yaml", "scenarios: []\n", "has no scenario"},
		{"bad scenario id", "catalog.yaml", strings.Replace(string(data), "id: office_survival", "id: Office-Survival", 1), "should be lowercase snake_case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &CatalogValidator{}
			err := v.validateFile(writeTemp(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateDialogueFile(t *testing.T) {
	good := `lines:
  user:
    stressed:
      phishing: "That link looks wrong."
      default: "Stay calm."
`
	v := &CatalogValidator{}
	if err := v.validateDialogueFile(writeTemp(t, "dialogue.yaml", good)); err != nil {
		t.Fatalf("expected valid dialogue, got %v", err)
	}

	bad := `lines:
  wizard:
    angry:
      Bad Situation: ""
`
	err := v.validateDialogueFile(writeTemp(t, "dialogue.yaml", bad))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown role", "unknown emotion", "snake_case", "is empty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	if err := v.validateDialogueFile(writeTemp(t, "dialogue.yaml", "lines: {}\n")); err == nil {
		t.Error("expected an error for an empty script")
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"phishing", true},
		{"c2", true},
		{"a", true},
		{"social_engineering", true},
		{"Phishing", false},
		{"trailing_", false},
		{"with-dash", false},
		{"2fa", false},
	}
	for _, tt := range tests {
		if got := isValidID(tt.id); got != tt.valid {
			t.Errorf("isValidID(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}
