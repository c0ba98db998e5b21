package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coupon-service/internal/apperror"
	"coupon-service/internal/database"
	"coupon-service/internal/models"
	"coupon-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode = "23505"
	numericOverflowCode = "22003"

	// DuplicateCodeMessage отдаётся клиенту при конфликте уникального кода.
	DuplicateCodeMessage = "a coupon with this code already exists"

	defaultListLimit = 50
	maxListLimit     = 200
)

const couponColumns = `id, code, description, discount_value, expiration_date, published, redeemed, status, created_at, deleted_at`

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanTarget interface {
	Scan(dest ...interface{}) error
}

type couponRepository struct {
	db *database.DB
	q  queryer
	tx *sql.Tx
}

// NewCouponRepository создаёт репозиторий купонов поверх пула PostgreSQL.
func NewCouponRepository(db *database.DB) repository.CouponRepository {
	return &couponRepository{db: db, q: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, description, discount_value, expiration_date, published, redeemed, status, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		coupon.ID, coupon.Code, coupon.Description, coupon.DiscountValue, coupon.ExpirationDate,
		coupon.Published, coupon.Redeemed, coupon.Status, coupon.CreatedAt, coupon.DeletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolationCode:
				return apperror.Conflict(DuplicateCodeMessage, err)
			case numericOverflowCode:
				return &apperror.Error{
					Kind:   apperror.KindValidation,
					Msg:    "request validation failed",
					Fields: []apperror.FieldError{{Field: "discountValue", Message: "discountValue is out of range"}},
					Err:    err,
				}
			}
		}
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return r.findByID(ctx, id, false)
}

func (r *couponRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return r.findByID(ctx, id, true)
}

func (r *couponRepository) findByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	coupon, err := scanCoupon(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return coupon, nil
}

func (r *couponRepository) UpdateStatus(ctx context.Context, coupon *models.Coupon) error {
	query := `UPDATE coupons SET status = $1, deleted_at = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, coupon.Status, coupon.DeletedAt, coupon.ID)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *couponRepository) List(ctx context.Context, filter models.ListCouponsFilter) ([]*models.Coupon, error) {
	limit, offset := normalizePagination(filter.Limit, filter.Offset)

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + couponColumns + ` FROM coupons`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]*models.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}

	return coupons, nil
}

func (r *couponRepository) WithinTx(ctx context.Context, fn func(repo repository.CouponRepository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&couponRepository{db: r.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanCoupon(src scanTarget) (*models.Coupon, error) {
	c := &models.Coupon{}
	if err := src.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountValue, &c.ExpirationDate,
		&c.Published, &c.Redeemed, &c.Status, &c.CreatedAt, &c.DeletedAt,
	); err != nil {
		return nil, err
	}
	return c, nil
}

func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
