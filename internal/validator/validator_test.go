package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

func TestValidate_TemplateParams(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		params  models.SaveTemplateParams
		wantErr bool
		rule    string
	}{
		{
			name:   "valid",
			params: models.SaveTemplateParams{Name: "Header", Path: "/t.pdf", Margins: `{"top":0,"bottom":1000,"left":0,"right":1000}`},
		},
		{
			name:    "blank name",
			params:  models.SaveTemplateParams{Name: "   ", Path: "/t.pdf", Margins: `{"top":0,"bottom":1000,"left":0,"right":1000}`},
			wantErr: true,
			rule:    "template_name",
		},
		{
			name:    "inverted margins",
			params:  models.SaveTemplateParams{Name: "Header", Path: "/t.pdf", Margins: `{"top":500,"bottom":400,"left":0,"right":1000}`},
			wantErr: true,
			rule:    "margins_json",
		},
		{
			name:    "malformed margins",
			params:  models.SaveTemplateParams{Name: "Header", Path: "/t.pdf", Margins: `{top}`},
			wantErr: true,
			rule:    "margins_json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(&tt.params)
			if !tt.wantErr {
				assert.Empty(t, errs)
				return
			}
			if assert.NotEmpty(t, errs) {
				assert.Equal(t, tt.rule, errs[0].Rule)
			}
		})
	}
}

func TestValidateMargins(t *testing.T) {
	bv := NewBusinessValidator()

	assert.Empty(t, bv.ValidateMargins(models.FullPage()))

	errs := bv.ValidateMargins(models.Margins{Top: 500, Bottom: 400, Left: 0, Right: 1000})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "Top", errs[0].Field)
	}

	errs = bv.ValidateMargins(models.Margins{Top: 0, Bottom: 1000, Left: 800, Right: 200})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "Left", errs[0].Field)
	}

	errs = bv.ValidateMargins(models.Margins{Top: 0, Bottom: 2000, Left: 0, Right: 1000})
	assert.NotEmpty(t, errs)
}

func TestValidateGenerate(t *testing.T) {
	bv := NewBusinessValidator()

	assert.Empty(t, bv.ValidateGenerate(&models.GenerateTestParams{Count: 20}))

	blank := " "
	assert.NotEmpty(t, bv.ValidateGenerate(&models.GenerateTestParams{Count: 20, Topic: &blank}))
	assert.NotEmpty(t, bv.ValidateGenerate(&models.GenerateTestParams{Count: 0}))
	assert.NotEmpty(t, bv.ValidateGenerate(&models.GenerateTestParams{Count: 101}))
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	assert.Equal(t, "validation failed: Name is required", ValidationErrors{{Field: "Name", Message: "is required"}}.Error())
	assert.True(t, IsValidationError(ValidationErrors{{Field: "x"}}))
}
