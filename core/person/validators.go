package person

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

var (
	emailOrPhoneTag  = "email_or_phone"
	emailOrPhoneText = "one of email or phone is required"

	contactTakenText = map[string]string{
		"email": "a person with this email already exists",
		"phone": "a person with this phone number already exists",
	}
)

// RegisterValidators registers the validators and translations of this package.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(contactStructValidation, Candidate{}, Contact{})
	core.RegisterCustomTranslation(validate, translator, emailOrPhoneTag, emailOrPhoneText)
}

// contactStructValidation checks that one of Email or Phone is provided.
func contactStructValidation(sl validator.StructLevel) {
	var email, phone string
	switch v := sl.Current().Interface().(type) {
	case Candidate:
		email, phone = v.Email, v.Phone
	case Contact:
		email, phone = v.Email, v.Phone
	default:
		return
	}
	if NormalizeEmail(email) == "" && NormalizePhone(phone) == "" {
		sl.ReportError(email, "email", "Email", emailOrPhoneTag, "")
		sl.ReportError(phone, "phone", "Phone", emailOrPhoneTag, "")
	}
}

// invalidCandidate turns validation failures into a core.ValidationError wrapping ErrInvalidCandidate.
func invalidCandidate(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]core.FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, core.FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return core.NewValidationError(ErrInvalidCandidate, flds...)
}

func missingContactError() error {
	return core.NewValidationError(
		ErrInvalidCandidate,
		core.FieldError{Field: "email", Error: emailOrPhoneText},
		core.FieldError{Field: "phone", Error: emailOrPhoneText},
	)
}
