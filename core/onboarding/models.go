package onboarding

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
)

type State string

// Session states
const (
	StateIdle              State = "idle"
	StateSearching         State = "searching" // transient, while the registry is queried
	StateReviewing         State = "reviewing_candidates"
	StateConfirmedExisting State = "confirmed_existing"
	StateCreatingNew       State = "creating_new"
	StateCompleted         State = "completed"
)

// Session is the state of one staff-driven onboarding of a guardian or instructor at a school.
type Session struct {
	ID        string `json:"id"`
	SchoolID  string `json:"school_id"`
	StaffID   string `json:"staff_id,omitempty"`
	LinkType  string `json:"link_type"`
	StudentID string `json:"student_id,omitempty"`
	State     State  `json:"state"`

	Term             string            `json:"term,omitempty"`
	Candidates       []person.Person   `json:"candidates"`
	Selected         *person.Person    `json:"selected,omitempty"`
	Summary          *link.View        `json:"summary,omitempty"`
	Draft            *person.Candidate `json:"draft,omitempty"`
	DuplicateWarning *person.Person    `json:"duplicate_warning,omitempty"`
	SimilarNames     []person.Similar  `json:"similar_names,omitempty"`
	LastError        string            `json:"last_error,omitempty"`
	Result           *Result           `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Result is the outcome of a submitted session.
type Result struct {
	Person  person.Person `json:"person"`
	Created bool          `json:"created"`
	Link    link.Link     `json:"link"`
}

// NewSession contains information needed to start an onboarding.
type NewSession struct {
	SchoolID  string `json:"school_id" validate:"required"`
	LinkType  string `json:"link_type" validate:"required,oneof=guardian assignment"`
	StudentID string `json:"student_id"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.SchoolID = core.CleanString(ns.SchoolID)
	ns.LinkType = core.CleanString(ns.LinkType, true /* lower */)
	ns.StudentID = core.CleanString(ns.StudentID)
	return validate.Struct(ns)
}
