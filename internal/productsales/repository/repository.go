package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/internal/productsales/domain"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*Repo)(nil)

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL sales-ledger repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const saleColumns = `id, organization_id, deal_id, product_id, product_name, quantity, unit_price::text,
	discount::text, tax::text, total_price::text, customer_id, sale_date, assigned_to, notes, created_at`

func scanSale(row pgx.Row) (domain.ProductSale, error) {
	var s domain.ProductSale
	var unitPrice, discount, tax, total string
	err := row.Scan(
		&s.ID, &s.OrganizationID, &s.DealID, &s.ProductID, &s.ProductName, &s.Quantity, &unitPrice,
		&discount, &tax, &total, &s.CustomerID, &s.SaleDate, &s.AssignedTo, &s.Notes, &s.CreatedAt,
	)
	if err != nil {
		return domain.ProductSale{}, err
	}
	if s.UnitPrice, err = db.ParseNumeric(unitPrice); err != nil {
		return domain.ProductSale{}, err
	}
	if s.Discount, err = db.ParseNumeric(discount); err != nil {
		return domain.ProductSale{}, err
	}
	if s.Tax, err = db.ParseNumeric(tax); err != nil {
		return domain.ProductSale{}, err
	}
	if s.TotalPrice, err = db.ParseNumeric(total); err != nil {
		return domain.ProductSale{}, err
	}
	return s, nil
}

func (r *Repo) Create(ctx context.Context, s domain.ProductSale) (domain.ProductSale, error) {
	created, err := scanSale(r.pool.QueryRow(ctx, `
		INSERT INTO product_sales (id, organization_id, deal_id, product_id, product_name, quantity, unit_price,
			discount, tax, total_price, customer_id, sale_date, assigned_to, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, $10::numeric, $11, $12, $13, $14, $15)
		RETURNING `+saleColumns,
		s.ID, s.OrganizationID, s.DealID, s.ProductID, s.ProductName, s.Quantity, db.NumericArg(s.UnitPrice),
		db.NumericArg(s.Discount), db.NumericArg(s.Tax), db.NumericArg(s.TotalPrice), s.CustomerID, s.SaleDate,
		s.AssignedTo, s.Notes, s.CreatedAt,
	))
	if err != nil {
		return domain.ProductSale{}, fmt.Errorf("insert product sale: %w", err)
	}
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.ProductSale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM product_sales WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProductSale{}, apperr.NotFound(saleNotFoundMsg)
	}
	if err != nil {
		return domain.ProductSale{}, fmt.Errorf("get product sale: %w", err)
	}
	return s, nil
}

func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_sales WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete product sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(saleNotFoundMsg)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.ProductSale, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.ProductSale{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(product_name ILIKE $%d OR notes ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	for column, value := range map[string]*uuid.UUID{
		"deal_id":     params.DealID,
		"customer_id": params.CustomerID,
		"product_id":  params.ProductID,
	} {
		if value == nil {
			continue
		}
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, *value)
		argIdx++
	}
	if params.SaleFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sale_date >= $%d", argIdx))
		args = append(args, *params.SaleFrom)
		argIdx++
	}
	if params.SaleTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sale_date <= $%d", argIdx))
		args = append(args, *params.SaleTo)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM product_sales WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count product sales: %w", err)
	}

	sortColumn := "sale_date"
	switch params.SortBy {
	case "totalPrice":
		sortColumn = "total_price"
	case "createdAt":
		sortColumn = "created_at"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_sales
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, saleColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list product sales: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ProductSale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product sale: %w", err)
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}
