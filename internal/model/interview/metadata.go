package interview

import "time"

// Role is the hierarchical role the respondent identifies with.
type Role string

const (
	RoleDirector    Role = "Director"
	RoleManager     Role = "Manager"
	RoleCoordinator Role = "Coordinator"
	RoleAnalyst     Role = "Analyst"
)

// Roles lists the selectable roles in form order.
func Roles() []Role {
	return []Role{RoleDirector, RoleManager, RoleCoordinator, RoleAnalyst}
}

// Valid reports whether the role is one of the fixed options.
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleManager, RoleCoordinator, RoleAnalyst:
		return true
	}
	return false
}

// Area is the business process area the respondent works in.
type Area string

const (
	AreaFinance   Area = "Finance"
	AreaIT        Area = "IT"
	AreaSales     Area = "Sales"
	AreaMarketing Area = "Marketing"
	AreaGeneral   Area = "General"
)

// Areas lists the selectable areas in form order.
func Areas() []Area {
	return []Area{AreaFinance, AreaIT, AreaSales, AreaMarketing, AreaGeneral}
}

// Valid reports whether the area is one of the fixed options.
func (a Area) Valid() bool {
	switch a {
	case AreaFinance, AreaIT, AreaSales, AreaMarketing, AreaGeneral:
		return true
	}
	return false
}

// SessionMetadata identifies the respondent. It is collected once at session
// start and never mutated afterwards.
type SessionMetadata struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Area      Area      `json:"area"`
	StartedAt time.Time `json:"started_at"`
}

// Answer is a single response to a question, stamped at submission time.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Text       string    `json:"answer_text"`
	AnsweredAt time.Time `json:"answered_at"`
}
