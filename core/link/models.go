package link

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
)

// Link types
const (
	TypeGuardian   = "guardian"
	TypeAssignment = "assignment"
)

// Relationship types of a guardian link
const (
	RelParent   = "parent"
	RelMother   = "mother"
	RelFather   = "father"
	RelGuardian = "guardian"
	RelTutor    = "tutor"
	RelOther    = "other"
)

var RelationshipTypes = []string{RelParent, RelMother, RelFather, RelGuardian, RelTutor, RelOther}

// Link is a per-school relationship record of a Person: a guardianship of one student or a teaching assignment.
type Link struct {
	ID             string `json:"id"`
	PersonGlobalID string `json:"person_global_id"`
	SchoolID       string `json:"school_id"`
	Type           string `json:"type"`

	// guardian
	StudentID        string `json:"student_id,omitempty"`
	RelationshipType string `json:"relationship_type,omitempty"`
	IsPrimaryContact bool   `json:"is_primary_contact"`
	CanPickup        bool   `json:"can_pickup"`
	EmergencyContact bool   `json:"emergency_contact"`

	// assignment
	Subjects    []string  `json:"subjects"`
	Classes     []string  `json:"classes"`
	WeeklyHours float64   `json:"weekly_hours"`
	StartDate   null.Time `json:"start_date"`
	EndDate     null.Time `json:"end_date"`

	IsActive      bool      `json:"is_active"`
	DeactivatedAt null.Time `json:"deactivated_at"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (l Link) IsGuardian() bool   { return l.Type == TypeGuardian }
func (l Link) IsAssignment() bool { return l.Type == TypeAssignment }

// Details contains the type-specific information of a Link.
type Details struct {
	Type string `json:"type" validate:"required,oneof=guardian assignment"`

	StudentID        string `json:"student_id"`
	RelationshipType string `json:"relationship_type" validate:"omitempty,relationship"`
	IsPrimaryContact bool   `json:"is_primary_contact"`
	CanPickup        bool   `json:"can_pickup"`
	EmergencyContact bool   `json:"emergency_contact"`

	Subjects    []string  `json:"subjects" validate:"omitempty,dive,notblank,max=64"`
	Classes     []string  `json:"classes" validate:"omitempty,dive,notblank,max=64"`
	WeeklyHours float64   `json:"weekly_hours" validate:"gte=0,lte=168"`
	StartDate   null.Time `json:"start_date"`
	EndDate     null.Time `json:"end_date"`
}

func (d *Details) Clean() {
	d.Type = core.CleanString(d.Type, true /* lower */)
	d.StudentID = core.CleanString(d.StudentID)
	d.RelationshipType = core.CleanString(d.RelationshipType, true /* lower */)
	d.Subjects = core.CleanStrings(d.Subjects)
	d.Classes = core.CleanStrings(d.Classes)
	if d.Type == TypeGuardian && d.RelationshipType == "" {
		d.RelationshipType = RelParent
	}
}

func (d *Details) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d)
}

// apply overwrites the type-specific fields of l with d.
func (d Details) apply(l Link) Link {
	l.Type = d.Type
	switch d.Type {
	case TypeGuardian:
		l.StudentID = d.StudentID
		l.RelationshipType = d.RelationshipType
		l.IsPrimaryContact = d.IsPrimaryContact
		l.CanPickup = d.CanPickup
		l.EmergencyContact = d.EmergencyContact
		l.Subjects, l.Classes = []string{}, []string{}
		l.WeeklyHours = 0
		l.StartDate, l.EndDate = null.Time{}, null.Time{}
	case TypeAssignment:
		l.StudentID, l.RelationshipType = "", ""
		l.IsPrimaryContact, l.CanPickup, l.EmergencyContact = false, false, false
		l.Subjects = d.Subjects
		l.Classes = d.Classes
		l.WeeklyHours = d.WeeklyHours
		l.StartDate = d.StartDate
		l.EndDate = d.EndDate
	}
	if l.Subjects == nil {
		l.Subjects = []string{}
	}
	if l.Classes == nil {
		l.Classes = []string{}
	}
	return l
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	PersonGlobalID string
	SchoolID       string
	StudentID      string
	Type           string
	IsActive       *bool
}

// Matches reports whether l satisfies the filter. Record stores without query support use it.
func (qf QueryFilter) Matches(l Link) bool {
	return (qf.PersonGlobalID == "" || l.PersonGlobalID == qf.PersonGlobalID) &&
		(qf.SchoolID == "" || l.SchoolID == qf.SchoolID) &&
		(qf.StudentID == "" || l.StudentID == qf.StudentID) &&
		(qf.Type == "" || l.Type == qf.Type) &&
		(qf.IsActive == nil || l.IsActive == *qf.IsActive)
}

// SchoolSummary is the share of one school in a View.
type SchoolSummary struct {
	SchoolID    string   `json:"school_id"`
	SchoolCode  string   `json:"school_code"`
	SchoolName  string   `json:"school_name"`
	Types       []string `json:"types"`
	Links       int      `json:"links"`
	Students    int      `json:"students"`
	WeeklyHours float64  `json:"weekly_hours"`
}

// View is the cross-school summary of a Person, computed from its active links on every request.
type View struct {
	Person           person.Person   `json:"person"`
	TotalSchools     int             `json:"total_schools"`
	TotalLinks       int             `json:"total_links"`
	TotalStudents    int             `json:"total_students"`
	TotalWeeklyHours float64         `json:"total_weekly_hours"`
	HoursCeiling     float64         `json:"hours_ceiling"`
	AvailableHours   float64         `json:"available_hours"`
	OverCommitted    bool            `json:"over_committed"`
	Schools          []SchoolSummary `json:"schools"`
}
