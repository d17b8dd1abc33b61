package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadInterviewFileValid(t *testing.T) {
	path := writeTempFile(t, `
fallback_questions:
  - id: FB01
    text: First fallback question?
  - id: FB02
    text: Second fallback question?
profiles:
  - id: custom
    name: Custom Assistant
    tagline: A test profile
    system_prompt: You are a test assistant.
    require_interview: true
`)

	file, err := LoadInterviewFile(path)
	if err != nil {
		t.Fatalf("LoadInterviewFile err: %v", err)
	}

	questions := file.Questions()
	if len(questions) != 2 || questions[0].ID != "FB01" {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	profiles := file.ProfileSeed()
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if !profiles[0].RequireInterview {
		t.Fatal("require_interview not carried over")
	}
}

func TestLoadInterviewFileSingleFallbackRejected(t *testing.T) {
	path := writeTempFile(t, `
fallback_questions:
  - id: FB01
    text: Only one?
`)

	if _, err := LoadInterviewFile(path); err == nil {
		t.Fatal("expected rejection of a single fallback question")
	}
}

func TestLoadInterviewFileDuplicateProfile(t *testing.T) {
	path := writeTempFile(t, `
profiles:
  - id: dup
    name: One
    system_prompt: prompt
  - id: dup
    name: Two
    system_prompt: prompt
`)

	if _, err := LoadInterviewFile(path); err == nil {
		t.Fatal("expected rejection of duplicate profile ids")
	}
}

func TestLoadInterviewFileMissing(t *testing.T) {
	if _, err := LoadInterviewFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
