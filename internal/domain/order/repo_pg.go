package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careplan/careplan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, patient_id, provider_id, medication_name, primary_diagnosis,
	additional_diagnoses, medication_history, patient_records,
	status, COALESCE(error_message, ''), created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Order, error) {
	var o Order
	var diagnoses, history []byte
	err := row.Scan(&o.ID, &o.PatientID, &o.ProviderID, &o.MedicationName, &o.PrimaryDiagnosis,
		&diagnoses, &history, &o.PatientRecords,
		&o.Status, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(diagnoses) > 0 {
		if err := json.Unmarshal(diagnoses, &o.AdditionalDiagnoses); err != nil {
			return nil, fmt.Errorf("decode additional_diagnoses: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &o.MedicationHistory); err != nil {
			return nil, fmt.Errorf("decode medication_history: %w", err)
		}
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	if o.Status == "" {
		o.Status = StatusPending
	}
	diagnoses := []byte("[]")
	if o.AdditionalDiagnoses != nil {
		var err error
		if diagnoses, err = json.Marshal(o.AdditionalDiagnoses); err != nil {
			return fmt.Errorf("encode additional_diagnoses: %w", err)
		}
	}
	history := []byte("[]")
	if o.MedicationHistory != nil {
		var err error
		if history, err = json.Marshal(o.MedicationHistory); err != nil {
			return fmt.Errorf("encode medication_history: %w", err)
		}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO orders (id, patient_id, provider_id, medication_name, primary_diagnosis,
			additional_diagnoses, medication_history, patient_records, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		o.ID, o.PatientID, o.ProviderID, o.MedicationName, o.PrimaryDiagnosis,
		diagnoses, history, o.PatientRecords, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID, medicationName string) (*Order, error) {
	o, err := r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE patient_id = $1 AND medication_name = $2
		ORDER BY created_at DESC LIMIT 1`,
		patientID, medicationName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status, errorMessage string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE orders SET status = $2, error_message = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`,
		id, status, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, query string) ([]*Summary, error) {
	pattern := "%" + query + "%"
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.medication_name, o.status,
			p.mrn, p.first_name, p.last_name, o.created_at
		FROM orders o
		JOIN patients p ON p.id = o.patient_id
		WHERE o.id::text ILIKE $1
			OR o.medication_name ILIKE $1
			OR p.mrn ILIKE $1
			OR p.first_name ILIKE $1
			OR p.last_name ILIKE $1
		ORDER BY o.created_at DESC
		LIMIT 20`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.MedicationName, &s.Status,
			&s.PatientMRN, &s.PatientFirstName, &s.PatientLastName, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
