package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const productColumns = `id, organization_id, sku, name, description, unit_price::text, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var unitPrice string
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.SKU, &p.Name, &p.Description, &unitPrice, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	price, err := db.ParseNumeric(unitPrice)
	if err != nil {
		return Product{}, err
	}
	p.UnitPrice = price
	return p, nil
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	created, err := scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (id, organization_id, sku, name, description, unit_price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
		RETURNING `+productColumns,
		p.ID, p.OrganizationID, p.SKU, p.Name, p.Description, db.NumericArg(p.UnitPrice), p.Active, p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *Repo) GetProductByID(ctx context.Context, organizationID, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(productNotFoundMsg)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	updated, err := scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products SET sku = $3, name = $4, description = $5, unit_price = $6::numeric, active = $7, updated_at = $8
		WHERE id = $1 AND organization_id = $2
		RETURNING `+productColumns,
		p.ID, p.OrganizationID, p.SKU, p.Name, p.Description, db.NumericArg(p.UnitPrice), p.Active, p.UpdatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(productNotFoundMsg)
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *Repo) DeleteProduct(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMsg)
	}
	return nil
}

func (r *Repo) ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []Product{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.ActiveOnly {
		whereClauses = append(whereClauses, "active")
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM products WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	sortColumn := "created_at"
	switch params.SortBy {
	case "name":
		sortColumn = "name"
	case "unitPrice":
		sortColumn = "unit_price"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

var _ Repository = (*Repo)(nil)
