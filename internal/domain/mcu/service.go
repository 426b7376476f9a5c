package mcu

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcu/mcu/internal/domain/framingham"
	"github.com/mcu/mcu/internal/domain/report"
)

type Service struct {
	records  RecordRepository
	checkins CheckinRepository
	logger   zerolog.Logger
}

func NewService(records RecordRepository, checkins CheckinRepository, logger zerolog.Logger) *Service {
	return &Service{records: records, checkins: checkins, logger: logger}
}

// -- Records --

// validate normalises rec in place. Packages are stored as catalog IDs and
// deduplicated; identifiers outside the catalog are kept in ID form and
// returned so callers can report them. They unlock nothing.
func (s *Service) validate(rec *Record) ([]string, error) {
	rec.PatientName = strings.TrimSpace(rec.PatientName)
	if rec.PatientName == "" {
		return nil, fmt.Errorf("%w: patient_name is required", ErrValidation)
	}
	sex, err := framingham.ParseSex(rec.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid gender %q", ErrValidation, rec.Gender)
	}
	rec.Gender = string(sex)
	if rec.Age != nil && *rec.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrValidation)
	}

	pkgs := make([]string, 0, len(rec.Packages))
	var unknown []string
	seen := map[string]bool{}
	for _, p := range rec.Packages {
		id, known := report.CanonicalID(p)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		pkgs = append(pkgs, id)
		if !known {
			unknown = append(unknown, id)
		}
	}
	rec.Packages = pkgs
	return unknown, nil
}

// save validates rec, refreshes its risk fields and hands it to store.
func (s *Service) save(ctx context.Context, rec *Record, store func(context.Context, *Record) error) ([]string, error) {
	unknown, err := s.validate(rec)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		s.logger.Warn().Str("patient_name", rec.PatientName).Strs("packages", unknown).
			Msg("record has packages outside the catalog")
	}
	s.applyRisk(rec)
	return unknown, store(ctx, rec)
}

func (s *Service) CreateRecord(ctx context.Context, rec *Record) error {
	_, err := s.save(ctx, rec, s.records.Create)
	return err
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, id)
}

// UpdateRecord stores the record and refreshes its risk fields from the new values.
func (s *Service) UpdateRecord(ctx context.Context, rec *Record) error {
	_, err := s.save(ctx, rec, s.records.Update)
	return err
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.records.Delete(ctx, id)
}

func (s *Service) SearchRecords(ctx context.Context, params map[string]string, limit, offset int) ([]*Record, int, error) {
	return s.records.Search(ctx, canonicalFilters(params), limit, offset)
}

// canonicalFilters rewrites package and gender filters into their stored
// form, so "MCU Regular" finds mcu_regular and "L" finds MALE. A gender that
// does not parse is passed through and matches nothing.
func canonicalFilters(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	if v := strings.TrimSpace(out["package"]); v != "" {
		out["package"], _ = report.CanonicalID(v)
	}
	if v := strings.TrimSpace(out["gender"]); v != "" {
		if sex, err := framingham.ParseSex(v); err == nil {
			out["gender"] = string(sex)
		}
	}
	return out
}

// -- Risk --

// RiskOutcome reports a scoring attempt. Result is nil when Complete is false.
type RiskOutcome struct {
	Complete bool               `json:"complete"`
	Reason   string             `json:"reason,omitempty"`
	Result   *framingham.Result `json:"result,omitempty"`
}

// RiskInputFor assembles the calculator input from the record's physical
// exam, lab and health history.
func RiskInputFor(rec *Record) framingham.Input {
	in := framingham.Input{
		AgeYears:                rec.Age,
		TotalCholesterolMgDl:    rec.Lab.KolesterolTotal,
		HDLCholesterolMgDl:      rec.Lab.HDL,
		SystolicBPMmHg:          rec.PhysicalExam.TensiSistol,
		IsSmoker:                rec.HealthHistory.Merokok,
		OnHypertensionTreatment: rec.HealthHistory.ObatHipertensi,
	}
	if sex, err := framingham.ParseSex(rec.Gender); err == nil {
		in.Sex = sex
	}
	return in
}

// PreviewRisk scores in without touching storage.
func (s *Service) PreviewRisk(in framingham.Input) RiskOutcome {
	return Preview(in)
}

// Preview scores in. Form codes such as "L" or "perempuan" are accepted for
// sex.
func Preview(in framingham.Input) RiskOutcome {
	if sex, err := framingham.ParseSex(string(in.Sex)); err == nil {
		in.Sex = sex
	}
	res, err := framingham.Compute(in)
	if err != nil {
		return RiskOutcome{Reason: err.Error()}
	}
	return RiskOutcome{Complete: true, Result: &res}
}

// applyRisk merges the computed risk into rec, or blanks the risk fields when
// the record does not yet carry every input.
func (s *Service) applyRisk(rec *Record) RiskOutcome {
	out := Preview(RiskInputFor(rec))
	if !out.Complete {
		rec.clearRisk()
		return out
	}
	res := out.Result
	score, pct, cat, age := res.TotalPoints, res.RiskPercentage, string(res.RiskCategory), res.VascularAge
	rec.Score = &score
	rec.FraminghamRiskPercentage = &pct
	rec.FraminghamRiskCategory = &cat
	rec.FraminghamVascularAge = &age
	return out
}

// ComputeRisk recomputes and persists the risk fields of a stored record.
func (s *Service) ComputeRisk(ctx context.Context, id uuid.UUID) (*Record, RiskOutcome, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, RiskOutcome{}, err
	}
	out := s.applyRisk(rec)
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, RiskOutcome{}, fmt.Errorf("store risk: %w", err)
	}

	evt := s.logger.Info().Str("record_id", id.String())
	if out.Complete {
		evt.Int("score", out.Result.TotalPoints).
			Str("risk_percentage", out.Result.RiskPercentage).
			Str("risk_category", string(out.Result.RiskCategory)).
			Msg("framingham risk computed")
	} else {
		evt.Str("reason", out.Reason).Msg("framingham risk left blank")
	}
	return rec, out, nil
}

// -- Report --

type PlannedSection struct {
	ID    report.SectionID `json:"id"`
	Title string           `json:"title"`
}

// ReportPlan is the section list used by both the result-entry form and the
// PDF assembler.
type ReportPlan struct {
	RecordID     uuid.UUID        `json:"record_id"`
	Packages     []string         `json:"packages"`
	Sections     []PlannedSection `json:"sections"`
	FormSections []report.Flag    `json:"form_sections"`
}

func PresenceOf(rec *Record) report.Presence {
	return report.Presence{
		DASS:    len(rec.DASSAnswers) > 0,
		FAS:     len(rec.FASAnswers) > 0,
		Consent: rec.ConsentSubmittedAt != nil,
	}
}

func PlanFor(rec *Record) *ReportPlan {
	ids := report.SelectSections(rec.Packages, PresenceOf(rec))
	sections := make([]PlannedSection, len(ids))
	for i, id := range ids {
		sections[i] = PlannedSection{ID: id, Title: report.Title(id)}
	}
	return &ReportPlan{
		RecordID:     rec.ID,
		Packages:     rec.Packages,
		Sections:     sections,
		FormSections: report.FormSections(rec.Packages),
	}
}

func (s *Service) ReportPlan(ctx context.Context, id uuid.UUID) (*ReportPlan, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return PlanFor(rec), nil
}
