package careplan

import (
	"context"
	"errors"

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

func (r *repoPG) Create(ctx context.Context, cp *CarePlan) error {
	cp.ID = uuid.New()
	// The queue is at-least-once. A redelivered job that already stored
	// a plan replaces it instead of tripping the order_id unique index.
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_plans (id, order_id, content, model, prompt_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET content = EXCLUDED.content,
			model = EXCLUDED.model,
			prompt_version = EXCLUDED.prompt_version,
			created_at = NOW()
		RETURNING id, created_at`,
		cp.ID, cp.OrderID, cp.Content, cp.Model, cp.PromptVersion).Scan(&cp.ID, &cp.CreatedAt)
}

func (r *repoPG) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*CarePlan, error) {
	var cp CarePlan
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, order_id, content, model, prompt_version, created_at
		FROM care_plans WHERE order_id = $1`,
		orderID).Scan(&cp.ID, &cp.OrderID, &cp.Content, &cp.Model, &cp.PromptVersion, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}
