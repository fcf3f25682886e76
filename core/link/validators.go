package link

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

var (
	relationshipTag  = "relationship"
	relationshipText = "invalid relationship type"

	requiredForTypeTag  = "required_for_type"
	requiredForTypeText = "this field is required for this link type"

	endAfterStartTag  = "end_after_start"
	endAfterStartText = "end date cannot be before start date"

	typeLockedText = "link type cannot be changed"
)

// RegisterValidators registers the validators and translations of this package.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(relationshipTag, relationshipValidation)
	core.RegisterCustomTranslation(validate, translator, relationshipTag, relationshipText)

	validate.RegisterStructValidation(detailsStructValidation, Details{})
	core.RegisterCustomTranslation(validate, translator, requiredForTypeTag, requiredForTypeText)
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

func relationshipValidation(fl validator.FieldLevel) bool {
	rel := fl.Field().String()
	for _, r := range RelationshipTypes {
		if r == rel {
			return true
		}
	}
	return false
}

// detailsStructValidation checks the fields each link type requires.
func detailsStructValidation(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(Details)
	if !ok {
		return
	}
	switch d.Type {
	case TypeGuardian:
		if d.StudentID == "" {
			sl.ReportError(d.StudentID, "student_id", "StudentID", requiredForTypeTag, "")
		}
	case TypeAssignment:
		if d.StartDate.Valid && d.EndDate.Valid && d.EndDate.Time.Before(d.StartDate.Time) {
			sl.ReportError(d.EndDate, "end_date", "EndDate", endAfterStartTag, "")
		}
	}
}
