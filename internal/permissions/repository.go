package permissions

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/smart-attendance/attendance/internal/platform/db"
)

// Repository encapsulates DB operations for permission requests.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Request, error)
	Get(ctx context.Context, id string) (*Request, error)
	Create(ctx context.Context, in CreateInput) (*Request, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a review transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id string) (*Request, error)
	ApplyReview(ctx context.Context, id string, review Review) error
	Get(ctx context.Context, id string) (*Request, error)
}

// Pool is satisfied by *pgxpool.Pool.
type Pool interface {
	db.DBTX
	db.TxBeginner
}

type repository struct {
	pool Pool
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool Pool) Repository {
	return &repository{pool: pool}
}

const selectRequest = `SELECT p.id::text, p.student_id::text, u.full_name, u.nim, p.type, p.reason,
	p.start_date, p.end_date, p.status, p.reviewed_by::text, p.reviewed_at, p.created_at, p.updated_at
FROM permission_requests p
JOIN users u ON u.id = p.student_id`

func (r *repository) List(ctx context.Context, filter Filter) ([]Request, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "p.status = $"+strconv.Itoa(len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, "p.student_id = $"+strconv.Itoa(len(args))+"::uuid")
	}
	query := selectRequest
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (*Request, error) {
	return getRequest(ctx, r.pool, id, false)
}

func (r *repository) Create(ctx context.Context, in CreateInput) (*Request, error) {
	var id string
	err := r.pool.QueryRow(ctx, `INSERT INTO permission_requests (student_id, type, reason, start_date, end_date)
VALUES ($1::uuid, $2, $3, $4, $5) RETURNING id::text`,
		in.StudentID, string(in.Type), in.Reason, in.StartDate, in.EndDate).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetForUpdate(ctx context.Context, id string) (*Request, error) {
	return getRequest(ctx, t.tx, id, true)
}

func (t *txRepository) Get(ctx context.Context, id string) (*Request, error) {
	return getRequest(ctx, t.tx, id, false)
}

func (t *txRepository) ApplyReview(ctx context.Context, id string, review Review) error {
	tag, err := t.tx.Exec(ctx, `UPDATE permission_requests
SET status = $2, reviewed_by = $3::uuid, reviewed_at = $4, updated_at = NOW()
WHERE id = $1::uuid`, id, string(review.Status), review.ReviewerID, review.ReviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func getRequest(ctx context.Context, q db.DBTX, id string, lock bool) (*Request, error) {
	query := selectRequest + " WHERE p.id = $1::uuid"
	if lock {
		query += " FOR UPDATE OF p"
	}
	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.StudentID, &req.StudentName, &req.StudentNIM, &req.Type, &req.Reason,
		&req.StartDate, &req.EndDate, &req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
