package ai

import (
	"fmt"
	"strings"

	"github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
)

// BuildSystemPrompt assembles the responder instruction: the profile's base
// prompt, plus a user-context section when the session went through the
// identity step, so tone and depth match the respondent's role and area.
func BuildSystemPrompt(prof *profile.Profile, meta *interview.SessionMetadata) string {
	base := strings.TrimSpace(prof.SystemPrompt)
	if base == "" {
		base = fmt.Sprintf("You are %s, %s.", prof.Name, prof.Tagline)
	}

	if meta == nil {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nUSER CONTEXT: you are talking to a ")
	b.WriteString(string(meta.Role))
	b.WriteString(" from the ")
	b.WriteString(string(meta.Area))
	b.WriteString(" area. Adapt your tone, terminology, and depth to that role and focus. ")
	b.WriteString("Generate technology ideas relevant to this profile, staying concise.")
	return b.String()
}
