package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+237 6 78 90 12 34", true},
		{"(237) 678-901-234", true},
		{"123", true},
		{"12", false},
		{"1234567890123456", false},
		{"+237/678/90/12/34", true},
		{"237,678,901,234", true},
		{"+237 678 90 12 34 ext 5", true},
		{"abc", false},
		{"ext 12", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPhone(tt.phone))
		})
	}
}

func TestValidator_translations(t *testing.T) {
	validate, translator := NewValidator()

	type form struct {
		Name  string `json:"name" validate:"required,notblank"`
		Phone string `json:"phone" validate:"omitempty,phone"`
	}
	tests := []struct {
		name string
		form form
		want map[string]string
	}{
		{name: "valid", form: form{Name: "Claire", Phone: "677 12 34 56"}},
		{name: "required", form: form{}, want: map[string]string{"name": "this field is required"}},
		{name: "blank", form: form{Name: "   "}, want: map[string]string{"name": "this field cannot be blank"}},
		{name: "phone", form: form{Name: "Claire", Phone: "x"}, want: map[string]string{"phone": "enter a valid phone number"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			got := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanStrings(t *testing.T) {
	assert.Equal(t, []string{"Physics", "Maths"}, CleanStrings([]string{" Physics ", "", "  ", "Maths"}))
	assert.Equal(t, []string{}, CleanStrings(nil))
	assert.Equal(t, "237678901234", Digits("+237 6 78-90 12 34"))
	assert.Equal(t, "abc", CleanString("  ABC ", true))
}
