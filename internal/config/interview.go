package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
)

// InterviewFile is the optional YAML override for the built-in fallback
// questions and responder profiles.
type InterviewFile struct {
	FallbackQuestions []FallbackQuestion `yaml:"fallback_questions"`
	Profiles          []ProfileEntry     `yaml:"profiles"`
}

// FallbackQuestion is one entry of the fallback question list.
type FallbackQuestion struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// ProfileEntry is one responder profile definition.
type ProfileEntry struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Tagline          string `yaml:"tagline"`
	OpeningLine      string `yaml:"opening_line"`
	SystemPrompt     string `yaml:"system_prompt"`
	RequireInterview bool   `yaml:"require_interview"`
}

// LoadInterviewFile reads and validates the YAML override at filename.
func LoadInterviewFile(filename string) (*InterviewFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var file InterviewFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	if err := validateInterviewFile(&file); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	return &file, nil
}

func validateInterviewFile(file *InterviewFile) error {
	if len(file.FallbackQuestions) > 0 && len(file.FallbackQuestions) < 2 {
		return fmt.Errorf("fallback_questions needs at least 2 entries, got %d", len(file.FallbackQuestions))
	}
	for i, q := range file.FallbackQuestions {
		if q.ID == "" {
			return fmt.Errorf("fallback question %d is missing an id", i)
		}
		if q.Text == "" {
			return fmt.Errorf("fallback question %s is missing text", q.ID)
		}
	}

	seen := make(map[string]bool, len(file.Profiles))
	for i, p := range file.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profile %d is missing an id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			return fmt.Errorf("profile %s is missing a name", p.ID)
		}
		if p.SystemPrompt == "" {
			return fmt.Errorf("profile %s is missing a system_prompt", p.ID)
		}
	}
	return nil
}

// Questions converts the override entries into the domain type.
func (f *InterviewFile) Questions() []interview.Question {
	if len(f.FallbackQuestions) == 0 {
		return nil
	}
	questions := make([]interview.Question, 0, len(f.FallbackQuestions))
	for _, q := range f.FallbackQuestions {
		questions = append(questions, interview.Question{ID: q.ID, Text: q.Text})
	}
	return questions
}

// ProfileSeed converts the override entries into responder profiles.
func (f *InterviewFile) ProfileSeed() []profile.Profile {
	if len(f.Profiles) == 0 {
		return nil
	}
	profiles := make([]profile.Profile, 0, len(f.Profiles))
	for _, p := range f.Profiles {
		profiles = append(profiles, profile.Profile{
			ID:               p.ID,
			Name:             p.Name,
			Tagline:          p.Tagline,
			OpeningLine:      p.OpeningLine,
			SystemPrompt:     p.SystemPrompt,
			RequireInterview: p.RequireInterview,
		})
	}
	return profiles
}
