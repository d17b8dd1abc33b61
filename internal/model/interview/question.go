package interview

import (
	"encoding/json"
	"errors"
)

// Question is one interview prompt. The ordered set for a session is fixed
// once fetched.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ErrNoQuestions indicates the payload decoded cleanly but contained no
// usable question entries.
var ErrNoQuestions = errors.New("no usable questions in payload")

// wireQuestion tolerates the two field naming conventions the workflow
// endpoint has been observed to emit.
type wireQuestion struct {
	QuestionID     string `json:"question_id"`
	QuestionIDAlt  string `json:"QuestionID"`
	QuestionText   string `json:"question_text"`
	QuestionTxtAlt string `json:"QuestionText"`
}

func (w wireQuestion) toQuestion() (Question, bool) {
	id := w.QuestionID
	if id == "" {
		id = w.QuestionIDAlt
	}
	text := w.QuestionText
	if text == "" {
		text = w.QuestionTxtAlt
	}
	if id == "" || text == "" {
		return Question{}, false
	}
	return Question{ID: id, Text: text}, true
}

// DecodeQuestions normalizes the heterogeneous shapes the workflow endpoint
// returns: a bare array of question objects, an object wrapping the array
// under "questions", or a single question object. Entries missing an id or
// text under both naming conventions are dropped as malformed.
func DecodeQuestions(raw []byte) ([]Question, error) {
	var entries []wireQuestion

	var list []wireQuestion
	if err := json.Unmarshal(raw, &list); err == nil {
		entries = list
	} else {
		var wrapper struct {
			Questions []wireQuestion `json:"questions"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Questions != nil {
			entries = wrapper.Questions
		} else {
			var single wireQuestion
			if err := json.Unmarshal(raw, &single); err != nil {
				return nil, err
			}
			entries = []wireQuestion{single}
		}
	}

	questions := make([]Question, 0, len(entries))
	for _, entry := range entries {
		if q, ok := entry.toQuestion(); ok {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// FallbackQuestions is the built-in question set used when the workflow
// endpoint is unreachable or returns fewer than two usable questions. The
// step-through UI needs at least two steps to exercise both navigation
// branches, so a short remote list is replaced wholesale.
func FallbackQuestions() []Question {
	return []Question{
		{ID: "FB01", Text: "What is your main operational challenge today that you believe technology could solve?"},
		{ID: "FB02", Text: "What kind of data do you feel is lost or underused in your area?"},
		{ID: "FB03", Text: "Which metrics do you consider essential to measure the success of a digital transformation?"},
	}
}
