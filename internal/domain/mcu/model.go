package mcu

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// PhysicalExam holds the vitals recorded at the physical examination station.
type PhysicalExam struct {
	TensiSistol  *float64 `json:"tensi_sistol,omitempty"`
	TensiDiastol *float64 `json:"tensi_diastol,omitempty"`
	Nadi         *float64 `json:"nadi,omitempty"`
	TinggiBadan  *float64 `json:"tinggi_badan,omitempty"`
	BeratBadan   *float64 `json:"berat_badan,omitempty"`
}

// Lab holds the chemistry values the risk score and the export need.
type Lab struct {
	KolesterolTotal *float64 `json:"kolesterol_total,omitempty"`
	HDL             *float64 `json:"hdl,omitempty"`
	LDL             *float64 `json:"ldl,omitempty"`
	Trigliserida    *float64 `json:"trigliserida,omitempty"`
	GulaDarahPuasa  *float64 `json:"gula_darah_puasa,omitempty"`
}

// HealthHistory is the subset of the health questionnaire used for scoring.
type HealthHistory struct {
	Merokok        *bool   `json:"merokok,omitempty"`
	ObatHipertensi *bool   `json:"obat_hipertensi,omitempty"`
	Keluhan        *string `json:"keluhan,omitempty"`
}

// Record maps to the mcu_record table: one patient visit with its results.
type Record struct {
	ID                 uuid.UUID     `db:"id" json:"id"`
	PatientName        string        `db:"patient_name" json:"patient_name"`
	Gender             string        `db:"gender" json:"gender"`
	Age                *int          `db:"age" json:"age,omitempty"`
	EmployeeNo         *string       `db:"employee_no" json:"employee_no,omitempty"`
	Company            *string       `db:"company" json:"company,omitempty"`
	ExamDate           *time.Time    `db:"exam_date" json:"exam_date,omitempty"`
	Packages           []string      `db:"packages" json:"packages"`
	PhysicalExam       PhysicalExam  `db:"physical_exam" json:"physical_exam"`
	Lab                Lab           `db:"lab" json:"lab"`
	HealthHistory      HealthHistory `db:"health_history" json:"health_history"`
	DASSAnswers        []int         `db:"dass_answers" json:"dass_answers,omitempty"`
	FASAnswers         []int         `db:"fas_answers" json:"fas_answers,omitempty"`
	ConsentSubmittedAt *time.Time    `db:"consent_submitted_at" json:"consent_submitted_at,omitempty"`

	Score                    *int    `db:"score" json:"score,omitempty"`
	FraminghamRiskPercentage *string `db:"framingham_risk_percentage" json:"framingham_risk_percentage,omitempty"`
	FraminghamRiskCategory   *string `db:"framingham_risk_category" json:"framingham_risk_category,omitempty"`
	FraminghamVascularAge    *int    `db:"framingham_vascular_age" json:"framingham_vascular_age,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (r *Record) clearRisk() {
	r.Score = nil
	r.FraminghamRiskPercentage = nil
	r.FraminghamRiskCategory = nil
	r.FraminghamVascularAge = nil
}

// Checkin maps to the mcu_checkin table: arrival of a patient at a station.
type Checkin struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RecordID    uuid.UUID `db:"record_id" json:"record_id"`
	Station     string    `db:"station" json:"station"`
	Operator    *string   `db:"operator" json:"operator,omitempty"`
	CheckedInAt time.Time `db:"checked_in_at" json:"checked_in_at"`
}
