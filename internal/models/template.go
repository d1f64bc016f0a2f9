package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// MarginScale is the size of the normalized page coordinate space.
	MarginScale = 1000
	// MarginMinGap is the smallest distance the editor allows between opposite edges.
	MarginMinGap = 50
)

var (
	ErrTopNotAboveBottom   = errors.New("top margin must be above the bottom margin")
	ErrLeftNotBeforeRight  = errors.New("left margin must be before the right margin")
	ErrMarginOutOfRange    = fmt.Errorf("margins must be within 0..%d", MarginScale)
	ErrMalformedMarginJSON = errors.New("malformed margins json")
)

// Margins describes the writable area of a template page in a 0..1000 space.
type Margins struct {
	Top    int `json:"top" validate:"min=0,max=1000"`
	Bottom int `json:"bottom" validate:"min=0,max=1000"`
	Left   int `json:"left" validate:"min=0,max=1000"`
	Right  int `json:"right" validate:"min=0,max=1000"`
}

// FullPage covers the whole page.
func FullPage() Margins {
	return Margins{Top: 0, Bottom: MarginScale, Left: 0, Right: MarginScale}
}

// Validate checks range and edge ordering. The editor's minimum gap is not enforced here.
func (m Margins) Validate() error {
	for _, v := range []int{m.Top, m.Bottom, m.Left, m.Right} {
		if v < 0 || v > MarginScale {
			return ErrMarginOutOfRange
		}
	}
	if m.Top >= m.Bottom {
		return ErrTopNotAboveBottom
	}
	if m.Left >= m.Right {
		return ErrLeftNotBeforeRight
	}
	return nil
}

// JSON returns the serialized form stored in Template.MarginsJSON.
func (m Margins) JSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// ParseMargins decodes a margins_json value.
func ParseMargins(s string) (Margins, error) {
	var m Margins
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return Margins{}, fmt.Errorf("%w: %v", ErrMalformedMarginJSON, err)
	}
	return m, nil
}

type Template struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Path         string    `json:"path" gorm:"type:text;not null"`
	PreviewImage string    `json:"preview_image" gorm:"type:text"`
	MarginsJSON  string    `json:"margins_json" gorm:"column:margins_json;type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Template) TableName() string {
	return "user_templates"
}

// Margins decodes the stored margins.
func (t Template) Margins() (Margins, error) {
	return ParseMargins(t.MarginsJSON)
}

// TemplateAnalysis is the engine's answer to analyze_template.
type TemplateAnalysis struct {
	Margins       *Margins `json:"margins,omitempty"`
	PreviewBase64 string   `json:"preview_base64,omitempty"`
	Error         string   `json:"error,omitempty"`
}
