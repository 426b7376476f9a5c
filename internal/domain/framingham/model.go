package framingham

import (
	"errors"
	"fmt"
	"strings"
)

// Sex selects which reference table set scores an input.
type Sex string

const (
	Male   Sex = "MALE"
	Female Sex = "FEMALE"
)

// ParseSex accepts the codes used on registration forms and patient imports.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "l", "laki-laki", "laki laki", "pria":
		return Male, nil
	case "female", "f", "p", "perempuan", "wanita":
		return Female, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

// Category is the qualitative 10-year risk band.
type Category string

const (
	Rendah Category = "Rendah"
	Sedang Category = "Sedang"
	Tinggi Category = "Tinggi"
)

var (
	// ErrIncomplete means at least one input needed for scoring is absent or not a finite number.
	// Callers leave the stored risk fields blank.
	ErrIncomplete = errors.New("framingham: incomplete input")

	// ErrAgeOutOfRange is returned for ages the point tables do not cover (20-79).
	ErrAgeOutOfRange = fmt.Errorf("%w: age outside %d-%d", ErrIncomplete, MinAge, MaxAge)
)

const (
	MinAge = 20
	MaxAge = 79
)

// Input is assembled from the MCU record. Nil fields are treated as missing.
type Input struct {
	Sex                     Sex      `json:"sex,omitempty"`
	AgeYears                *int     `json:"age_years,omitempty"`
	TotalCholesterolMgDl    *float64 `json:"total_cholesterol_mg_dl,omitempty"`
	HDLCholesterolMgDl      *float64 `json:"hdl_cholesterol_mg_dl,omitempty"`
	SystolicBPMmHg          *float64 `json:"systolic_bp_mm_hg,omitempty"`
	IsSmoker                *bool    `json:"is_smoker,omitempty"`
	OnHypertensionTreatment *bool    `json:"on_hypertension_treatment,omitempty"`
}

// Points is the per-component breakdown of a score.
type Points struct {
	Age         int `json:"age"`
	Cholesterol int `json:"cholesterol"`
	HDL         int `json:"hdl"`
	Systolic    int `json:"systolic"`
	Smoking     int `json:"smoking"`
}

func (p Points) Total() int {
	return p.Age + p.Cholesterol + p.HDL + p.Systolic + p.Smoking
}

type Result struct {
	Points         Points   `json:"points"`
	TotalPoints    int      `json:"total_points"`
	RiskPercentage string   `json:"risk_percentage"`
	RiskCategory   Category `json:"risk_category"`
	VascularAge    int      `json:"vascular_age"`
}
