package school

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

type School struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	City      string    `json:"city" db:"city"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type Student struct {
	ID         string    `json:"id" db:"id"`
	SchoolID   string    `json:"school_id" db:"school_id"`
	GivenName  string    `json:"given_name" db:"given_name"`
	FamilyName string    `json:"family_name" db:"family_name"`
	ClassName  string    `json:"class_name" db:"class_name"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.GivenName + " " + s.FamilyName)
}

// NewSchool contains information needed to register a School.
type NewSchool struct {
	Code string `json:"code" validate:"required,alphanum,max=16"`
	Name string `json:"name" validate:"required,notblank,max=255"`
	City string `json:"city" validate:"max=128"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Code = strings.ToUpper(core.CleanString(ns.Code))
	ns.Name = core.CleanString(ns.Name)
	ns.City = core.CleanString(ns.City)
	return validate.Struct(ns)
}

// NewStudent contains information needed to enrol a Student at a School.
type NewStudent struct {
	GivenName  string `json:"given_name" validate:"required,notblank,max=128"`
	FamilyName string `json:"family_name" validate:"max=128"`
	ClassName  string `json:"class_name" validate:"max=64"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.GivenName = core.CleanString(ns.GivenName)
	ns.FamilyName = core.CleanString(ns.FamilyName)
	ns.ClassName = core.CleanString(ns.ClassName)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
