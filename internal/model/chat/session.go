package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profileId"`
	InterviewID string    `json:"interviewId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
