package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL customer repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const customerColumns = `id, organization_id, name, email, phone, industry, website, created_at, updated_at`

// pgForeignKeyViolation is raised when deleting a customer still referenced by deals.
const pgForeignKeyViolation = "23503"

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Phone, &c.Industry, &c.Website, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) Create(ctx context.Context, c Customer) (Customer, error) {
	created, err := scanCustomer(r.pool.QueryRow(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+customerColumns,
		c.ID, c.OrganizationID, c.Name, c.Email, c.Phone, c.Industry, c.Website, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, apperr.NotFound(customerNotFoundMsg)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *Repo) Update(ctx context.Context, c Customer) (Customer, error) {
	updated, err := scanCustomer(r.pool.QueryRow(ctx, `
		UPDATE customers SET name = $3, email = $4, phone = $5, industry = $6, website = $7, updated_at = $8
		WHERE id = $1 AND organization_id = $2
		RETURNING `+customerColumns,
		c.ID, c.OrganizationID, c.Name, c.Email, c.Phone, c.Industry, c.Website, c.UpdatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, apperr.NotFound(customerNotFoundMsg)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperr.Conflict("customer still has deals")
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(customerNotFoundMsg)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, p ListParams) ([]Customer, int, error) {
	if p.OrganizationID == uuid.Nil {
		return []Customer{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{p.OrganizationID}
	argIdx := 2

	if p.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+p.Search+"%")
		argIdx++
	}
	if p.Industry != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("industry ILIKE $%d", argIdx))
		args = append(args, p.Industry)
		argIdx++
	}
	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	sortColumn := "created_at"
	if p.SortBy == "name" {
		sortColumn = "name"
	}
	sortOrder := "DESC"
	if p.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, p.Limit, p.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`, customerColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *Repo) Exists(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND organization_id = $2)`, id, organizationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer: %w", err)
	}
	return exists, nil
}

var _ Repository = (*Repo)(nil)
