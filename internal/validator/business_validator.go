package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s any) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateMargins checks range and edge ordering of a margins box.
func (bv *BusinessValidator) ValidateMargins(m models.Margins) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(m)...)
	if len(errors) > 0 {
		return errors
	}

	switch err := m.Validate(); err {
	case nil:
	case models.ErrTopNotAboveBottom:
		errors = append(errors, ValidationError{Field: "Top", Message: err.Error(), Value: m.Top, Rule: "ltfield"})
	case models.ErrLeftNotBeforeRight:
		errors = append(errors, ValidationError{Field: "Left", Message: err.Error(), Value: m.Left, Rule: "ltfield"})
	default:
		errors = append(errors, ValidationError{Field: "Margins", Message: err.Error(), Rule: "range"})
	}

	return errors
}

// ValidateGenerate validates generation parameters
func (bv *BusinessValidator) ValidateGenerate(req *models.GenerateTestParams) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Topic != nil && strings.TrimSpace(*req.Topic) == "" {
		errors = append(errors, ValidationError{Field: "Topic", Message: "must be omitted rather than blank", Rule: "topic"})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Serialized margins must decode and describe a non-empty box
	bv.validate.RegisterValidation("margins_json", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		m, err := models.ParseMargins(raw)
		if err != nil {
			return false
		}
		return m.Validate() == nil
	})

	bv.validate.RegisterValidation("student_name", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// Template name (1-200 characters)
	bv.validate.RegisterValidation("template_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})

	bv.validate.RegisterValidation("setting_key", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case models.SettingGeminiAPIKey, models.SettingAIEngine:
			return true
		}
		return false
	})
}
