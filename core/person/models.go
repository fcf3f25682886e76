package person

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// Person is the canonical identity of a guardian or instructor, shared by every school it is linked to.
type Person struct {
	GlobalID        string    `json:"global_id"`
	LocalID         string    `json:"local_id"`
	OriginSchoolID  string    `json:"origin_school_id,omitempty"`
	GivenName       string    `json:"given_name"`
	FamilyName      string    `json:"family_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	Occupation      string    `json:"occupation,omitempty"`
	Specializations []string  `json:"specializations"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

func (p Person) EmailKey() string { return NormalizeEmail(p.Email) }
func (p Person) PhoneKey() string { return NormalizePhone(p.Phone) }

// NormalizeEmail returns the matching key of an email: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return core.CleanString(email, true /* lower */)
}

// NormalizePhone returns the matching key of a phone number: its digits only.
// "+237 6 78 90 12 34" and "237678901234" share the same key.
func NormalizePhone(phone string) string {
	return core.Digits(phone)
}

// Contact holds the details identities are matched on.
type Contact struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,phone,max=32"`
}

func (c *Contact) Clean() {
	c.Email = core.CleanString(c.Email)
	c.Phone = core.CleanString(c.Phone)
}

func (c Contact) IsEmpty() bool {
	return NormalizeEmail(c.Email) == "" && NormalizePhone(c.Phone) == ""
}

func (c *Contact) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

// Candidate contains the details supplied by staff for a person who may or may not exist yet.
type Candidate struct {
	SchoolID        string   `json:"school_id"` // originating school, used to derive the LocalID
	GivenName       string   `json:"given_name" validate:"max=128"`
	FamilyName      string   `json:"family_name" validate:"max=128"`
	Email           string   `json:"email" validate:"omitempty,email,max=254"`
	Phone           string   `json:"phone" validate:"omitempty,phone,max=32"`
	Address         string   `json:"address"`
	Occupation      string   `json:"occupation" validate:"max=128"`
	Specializations []string `json:"specializations" validate:"omitempty,dive,notblank,max=64"`
}

func (c *Candidate) Clean() {
	c.SchoolID = core.CleanString(c.SchoolID)
	c.GivenName = core.CleanString(c.GivenName)
	c.FamilyName = core.CleanString(c.FamilyName)
	c.Email = core.CleanString(c.Email)
	c.Phone = core.CleanString(c.Phone)
	c.Address = core.CleanString(c.Address)
	c.Occupation = core.CleanString(c.Occupation)
	c.Specializations = core.CleanStrings(c.Specializations)
}

func (c Candidate) Contact() Contact {
	return Contact{Email: c.Email, Phone: c.Phone}
}

func (c *Candidate) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

// UpdatePerson defines what information may be provided to amend an existing Person.
// Blank fields keep their current value; a nil Specializations keeps the current list.
type UpdatePerson struct {
	GivenName       string   `json:"given_name" validate:"max=128"`
	FamilyName      string   `json:"family_name" validate:"max=128"`
	Email           string   `json:"email" validate:"omitempty,email,max=254"`
	Phone           string   `json:"phone" validate:"omitempty,phone,max=32"`
	Address         string   `json:"address"`
	Occupation      string   `json:"occupation" validate:"max=128"`
	Specializations []string `json:"specializations" validate:"omitempty,dive,notblank,max=64"`
}

func (up *UpdatePerson) Validate(validate *validator.Validate) error {
	up.GivenName = core.CleanString(up.GivenName)
	up.FamilyName = core.CleanString(up.FamilyName)
	up.Email = core.CleanString(up.Email)
	up.Phone = core.CleanString(up.Phone)
	up.Address = core.CleanString(up.Address)
	up.Occupation = core.CleanString(up.Occupation)
	if up.Specializations != nil {
		up.Specializations = core.CleanStrings(up.Specializations)
	}
	return validate.Struct(up)
}

// apply returns orig amended with the set fields of up.
func (up UpdatePerson) apply(orig Person) Person {
	p := orig
	if up.GivenName != "" {
		p.GivenName = up.GivenName
	}
	if up.FamilyName != "" {
		p.FamilyName = up.FamilyName
	}
	if up.Email != "" {
		p.Email = up.Email
	}
	if up.Phone != "" {
		p.Phone = up.Phone
	}
	if up.Address != "" {
		p.Address = up.Address
	}
	if up.Occupation != "" {
		p.Occupation = up.Occupation
	}
	if up.Specializations != nil {
		p.Specializations = up.Specializations
	}
	return p
}

// QueryFilter selects identities.
// Email and Phone are exact normalized keys OR-ed together; Search is AND-ed with them.
type QueryFilter struct {
	Search     string
	Email      string
	Phone      string
	ExcludeIDs []string
}

func (qf QueryFilter) HasContact() bool {
	return qf.Email != "" || qf.Phone != ""
}

// Matches reports whether p satisfies the filter. Record stores without query support use it.
func (qf QueryFilter) Matches(p Person) bool {
	for _, id := range qf.ExcludeIDs {
		if p.GlobalID == id {
			return false
		}
	}
	if qf.HasContact() {
		emailHit := qf.Email != "" && p.EmailKey() == qf.Email
		phoneHit := qf.Phone != "" && p.PhoneKey() == qf.Phone
		if !(emailHit || phoneHit) {
			return false
		}
	}
	if qf.Search != "" {
		return MatchesTerm(p, qf.Search)
	}
	return true
}

// MatchesTerm does a case-insensitive substring match of term on the full name, email and
// specializations of p. When term contains digits, they are also matched against the phone digits.
func MatchesTerm(p Person, term string) bool {
	lterm := strings.ToLower(strings.TrimSpace(term))
	if lterm == "" {
		return false
	}
	if strings.Contains(strings.ToLower(p.FullName()), lterm) ||
		strings.Contains(p.EmailKey(), lterm) {
		return true
	}
	for _, spec := range p.Specializations {
		if strings.Contains(strings.ToLower(spec), lterm) {
			return true
		}
	}
	if digits := core.Digits(term); digits != "" && p.PhoneKey() != "" {
		return strings.Contains(p.PhoneKey(), digits)
	}
	return false
}
