package framingham

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	BelowRange = "<1"
	AboveRange = "≥30"
)

// Compute scores a complete input against the sex-specific tables. It returns
// ErrIncomplete (or ErrAgeOutOfRange, which wraps it) instead of a number when
// the input cannot be scored. Magnitudes are not range-checked.
func Compute(in Input) (Result, error) {
	ts, ok := tablesFor(in.Sex)
	if !ok {
		return Result{}, fmt.Errorf("%w: sex", ErrIncomplete)
	}
	if in.AgeYears == nil {
		return Result{}, fmt.Errorf("%w: age", ErrIncomplete)
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"total cholesterol", in.TotalCholesterolMgDl},
		{"hdl", in.HDLCholesterolMgDl},
		{"systolic", in.SystolicBPMmHg},
	} {
		if f.v == nil || math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return Result{}, fmt.Errorf("%w: %s", ErrIncomplete, f.name)
		}
	}
	if in.IsSmoker == nil {
		return Result{}, fmt.Errorf("%w: smoking status", ErrIncomplete)
	}
	if in.OnHypertensionTreatment == nil {
		return Result{}, fmt.Errorf("%w: hypertension treatment", ErrIncomplete)
	}

	age := *in.AgeYears
	if age < MinAge || age > MaxAge {
		return Result{}, ErrAgeOutOfRange
	}

	systolic := ts.systolicUntreated
	if *in.OnHypertensionTreatment {
		systolic = ts.systolicTreated
	}

	pts := Points{
		Age:         ts.ages[age-MinAge],
		Cholesterol: classifyCeil(ts.cholesterol, *in.TotalCholesterolMgDl),
		HDL:         classifyFloor(ts.hdl, *in.HDLCholesterolMgDl),
		Systolic:    classifyCeil(systolic, *in.SystolicBPMmHg),
	}
	if *in.IsSmoker {
		pts.Smoking = ts.smoker
	}

	total := pts.Total()
	pct := ts.riskPercentage(total)
	cat, err := Classify(pct)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Points:         pts,
		TotalPoints:    total,
		RiskPercentage: pct,
		RiskCategory:   cat,
		VascularAge:    nearest(ts.vascularAge, total),
	}, nil
}

func (ts *tableSet) riskPercentage(total int) string {
	switch {
	case total < ts.lowCutoff:
		return BelowRange
	case total > ts.highCutoff:
		return AboveRange
	}
	return strconv.FormatFloat(nearest(ts.riskPercent, total), 'f', -1, 64)
}

var percentMarkers = strings.NewReplacer("<", "", ">", "", "≥", "", "≤", "", "%", "", " ", "")

// Classify maps a risk percentage string, including the "<1" and "≥30"
// sentinels, to its category.
func Classify(pct string) (Category, error) {
	v, err := strconv.ParseFloat(percentMarkers.Replace(strings.TrimSpace(pct)), 64)
	if err != nil {
		return "", fmt.Errorf("parse risk percentage %q: %w", pct, err)
	}
	switch {
	case v < 10:
		return Rendah, nil
	case v <= 20:
		return Sedang, nil
	default:
		return Tinggi, nil
	}
}
