package interview

import (
	model "github.com/techideas/interview/backend/internal/model/interview"
)

// StepView describes the question currently on screen, 1-based for display.
type StepView struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Number       int    `json:"number"`
	Total        int    `json:"total"`
	IsLast       bool   `json:"isLast"`
}

// MetadataFormView carries the options for the identity form.
type MetadataFormView struct {
	Roles []model.Role `json:"roles"`
	Areas []model.Area `json:"areas"`
}

// View is what the hosting UI renders after every controller operation. The
// controller itself never performs presentation.
type View struct {
	SessionID string                 `json:"sessionId"`
	Phase     model.Phase            `json:"phase"`
	Metadata  *model.SessionMetadata `json:"metadata,omitempty"`
	Form      *MetadataFormView      `json:"form,omitempty"`
	Step      *StepView              `json:"step,omitempty"`
	Completed bool                   `json:"completed,omitempty"`
}

// Render maps session state to its view model. It is a pure function of the
// state snapshot.
func Render(state model.SessionState) View {
	view := View{
		SessionID: state.ID,
		Phase:     state.Phase,
		Metadata:  state.Metadata,
	}

	switch state.Phase {
	case model.PhaseAwaitingMetadata:
		view.Form = &MetadataFormView{Roles: model.Roles(), Areas: model.Areas()}
	case model.PhaseInterviewing:
		if q, ok := state.CurrentQuestion(); ok {
			view.Step = &StepView{
				QuestionID:   q.ID,
				QuestionText: q.Text,
				Number:       state.CurrentIndex + 1,
				Total:        len(state.Questions),
				IsLast:       state.CurrentIndex == len(state.Questions)-1,
			}
		}
	case model.PhaseFinalizing:
		view.Completed = true
	}

	return view
}
