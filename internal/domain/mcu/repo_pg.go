package mcu

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcu/mcu/internal/platform/db"
	"github.com/mcu/mcu/internal/platform/search"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// =========== Record Repository ===========

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository { return &recordRepoPG{pool: pool} }

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_name, gender, age, employee_no, company, exam_date, packages,
	physical_exam, lab, health_history, dass_answers, fas_answers, consent_submitted_at,
	score, framingham_risk_percentage, framingham_risk_category, framingham_vascular_age,
	created_at, updated_at`

var recordSearchParams = map[string]search.ParamConfig{
	"name":    {Type: search.ParamContains, Column: "patient_name"},
	"company": {Type: search.ParamExact, Column: "company"},
	"package": {Type: search.ParamArrayHas, Column: "packages"},
	"gender":  {Type: search.ParamExact, Column: "gender"},
	"from":    {Type: search.ParamDateFrom, Column: "exam_date"},
	"to":      {Type: search.ParamDateTo, Column: "exam_date"},
}

func (r *recordRepoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientName, &rec.Gender, &rec.Age, &rec.EmployeeNo, &rec.Company,
		&rec.ExamDate, &rec.Packages, &rec.PhysicalExam, &rec.Lab, &rec.HealthHistory,
		&rec.DASSAnswers, &rec.FASAnswers, &rec.ConsentSubmittedAt,
		&rec.Score, &rec.FraminghamRiskPercentage, &rec.FraminghamRiskCategory, &rec.FraminghamVascularAge,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO mcu_record (id, patient_name, gender, age, employee_no, company, exam_date, packages,
			physical_exam, lab, health_history, dass_answers, fas_answers, consent_submitted_at,
			score, framingham_risk_percentage, framingham_risk_category, framingham_vascular_age)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at`,
		rec.ID, rec.PatientName, rec.Gender, rec.Age, rec.EmployeeNo, rec.Company, rec.ExamDate, rec.Packages,
		rec.PhysicalExam, rec.Lab, rec.HealthHistory, rec.DASSAnswers, rec.FASAnswers, rec.ConsentSubmittedAt,
		rec.Score, rec.FraminghamRiskPercentage, rec.FraminghamRiskCategory, rec.FraminghamVascularAge,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM mcu_record WHERE id = $1`, id))
}

func (r *recordRepoPG) Update(ctx context.Context, rec *Record) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE mcu_record SET patient_name=$2, gender=$3, age=$4, employee_no=$5, company=$6,
			exam_date=$7, packages=$8, physical_exam=$9, lab=$10, health_history=$11,
			dass_answers=$12, fas_answers=$13, consent_submitted_at=$14,
			score=$15, framingham_risk_percentage=$16, framingham_risk_category=$17,
			framingham_vascular_age=$18, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		rec.ID, rec.PatientName, rec.Gender, rec.Age, rec.EmployeeNo, rec.Company,
		rec.ExamDate, rec.Packages, rec.PhysicalExam, rec.Lab, rec.HealthHistory,
		rec.DASSAnswers, rec.FASAnswers, rec.ConsentSubmittedAt,
		rec.Score, rec.FraminghamRiskPercentage, rec.FraminghamRiskCategory, rec.FraminghamVascularAge,
	).Scan(&rec.UpdatedAt)
	return notFound(err)
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM mcu_record WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Record, int, error) {
	q := search.New("mcu_record", recordCols)
	q.ApplyParams(params, recordSearchParams)
	q.OrderBy("created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(limit, offset), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

// =========== Checkin Repository ===========

type checkinRepoPG struct{ pool *pgxpool.Pool }

func NewCheckinRepoPG(pool *pgxpool.Pool) CheckinRepository { return &checkinRepoPG{pool: pool} }

func (r *checkinRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const checkinCols = `id, record_id, station, operator, checked_in_at`

func scanCheckin(row pgx.Row) (*Checkin, error) {
	var c Checkin
	if err := row.Scan(&c.ID, &c.RecordID, &c.Station, &c.Operator, &c.CheckedInAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *checkinRepoPG) Create(ctx context.Context, c *Checkin) (*Checkin, error) {
	var out *Checkin
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO mcu_checkin (id, record_id, station, operator)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (record_id, station) DO NOTHING`,
			uuid.New(), c.RecordID, c.Station, c.Operator); err != nil {
			return err
		}
		var err error
		out, err = scanCheckin(r.conn(ctx).QueryRow(ctx,
			`SELECT `+checkinCols+` FROM mcu_checkin WHERE record_id = $1 AND station = $2`,
			c.RecordID, c.Station))
		return err
	})
	return out, err
}

func (r *checkinRepoPG) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Checkin, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+checkinCols+` FROM mcu_checkin WHERE record_id = $1 ORDER BY checked_in_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
