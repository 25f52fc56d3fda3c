package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/internal/deals/domain"
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

// New creates a PostgreSQL deal repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const dealColumns = `id, organization_id, title, description, value::text, stage, status, customer_id,
	assigned_to, probability, expected_close_date, actual_close_date, source, campaign, tags, lead_id,
	created_at, updated_at`

const itemColumns = `id, sale_id, product_id, product_name, product_description, quantity,
	unit_price::text, discount::text, tax::text, line_total::text`

func scanDeal(row pgx.Row) (domain.Deal, error) {
	var d domain.Deal
	var value, stage, status string
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.Title, &d.Description, &value, &stage, &status, &d.CustomerID,
		&d.AssignedTo, &d.Probability, &d.ExpectedCloseDate, &d.ActualCloseDate, &d.Source, &d.Campaign, &d.Tags, &d.LeadID,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Deal{}, err
	}
	if d.Value, err = db.ParseNumeric(value); err != nil {
		return domain.Deal{}, err
	}
	d.Stage = domain.Stage(stage)
	d.Status = domain.Status(status)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.Items = []domain.SaleItem{}
	return d, nil
}

func scanItem(row pgx.Row) (domain.SaleItem, error) {
	var it domain.SaleItem
	var unitPrice, discount, tax, lineTotal string
	if err := row.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.ProductDescription, &it.Quantity,
		&unitPrice, &discount, &tax, &lineTotal); err != nil {
		return domain.SaleItem{}, err
	}
	var err error
	if it.UnitPrice, err = db.ParseNumeric(unitPrice); err != nil {
		return domain.SaleItem{}, err
	}
	if it.Discount, err = db.ParseNumeric(discount); err != nil {
		return domain.SaleItem{}, err
	}
	if it.Tax, err = db.ParseNumeric(tax); err != nil {
		return domain.SaleItem{}, err
	}
	if it.LineTotal, err = db.ParseNumeric(lineTotal); err != nil {
		return domain.SaleItem{}, err
	}
	return it, nil
}

func (r *Repo) Create(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Deal{}, fmt.Errorf("begin deal tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanDeal(tx.QueryRow(ctx, `
		INSERT INTO deals (id, organization_id, title, description, value, stage, status, customer_id,
			assigned_to, probability, expected_close_date, actual_close_date, source, campaign, tags, lead_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+dealColumns,
		d.ID, d.OrganizationID, d.Title, d.Description, db.NumericArg(d.Value), string(d.Stage), string(d.Status), d.CustomerID,
		d.AssignedTo, d.Probability, d.ExpectedCloseDate, d.ActualCloseDate, d.Source, d.Campaign, d.Tags, d.LeadID,
		d.CreatedAt, d.UpdatedAt,
	))
	if err != nil {
		return domain.Deal{}, fmt.Errorf("insert deal: %w", err)
	}
	if err := insertItems(ctx, tx, d.ID, d.Items); err != nil {
		return domain.Deal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Deal{}, fmt.Errorf("commit deal: %w", err)
	}
	created.Items = append(created.Items, d.Items...)
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Deal, error) {
	deal, err := scanDeal(r.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, apperr.NotFound(dealNotFoundMsg)
	}
	if err != nil {
		return domain.Deal{}, fmt.Errorf("get deal: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{deal.ID})
	if err != nil {
		return domain.Deal{}, err
	}
	deal.Items = append(deal.Items, items[deal.ID]...)
	return deal, nil
}

// Update rewrites the deal row and replaces its items in one transaction.
func (r *Repo) Update(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Deal{}, fmt.Errorf("begin deal tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := scanDeal(tx.QueryRow(ctx, `
		UPDATE deals SET
			title = $3, description = $4, value = $5::numeric, stage = $6, status = $7, customer_id = $8,
			assigned_to = $9, probability = $10, expected_close_date = $11, actual_close_date = $12,
			source = $13, campaign = $14, tags = $15, lead_id = $16, updated_at = $17
		WHERE id = $1 AND organization_id = $2
		RETURNING `+dealColumns,
		d.ID, d.OrganizationID, d.Title, d.Description, db.NumericArg(d.Value), string(d.Stage), string(d.Status), d.CustomerID,
		d.AssignedTo, d.Probability, d.ExpectedCloseDate, d.ActualCloseDate,
		d.Source, d.Campaign, d.Tags, d.LeadID, d.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, apperr.NotFound(dealNotFoundMsg)
	}
	if err != nil {
		return domain.Deal{}, fmt.Errorf("update deal: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, d.ID); err != nil {
		return domain.Deal{}, fmt.Errorf("clear deal items: %w", err)
	}
	if err := insertItems(ctx, tx, d.ID, d.Items); err != nil {
		return domain.Deal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Deal{}, fmt.Errorf("commit deal: %w", err)
	}
	updated.Items = append(updated.Items, d.Items...)
	return updated, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, dealID uuid.UUID, items []domain.SaleItem) error {
	for pos, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, position, product_id, product_name, product_description,
				quantity, unit_price, discount, tax, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11::numeric)`,
			it.ID, dealID, pos, it.ProductID, it.ProductName, it.ProductDescription, it.Quantity,
			db.NumericArg(it.UnitPrice), db.NumericArg(it.Discount), db.NumericArg(it.Tax), db.NumericArg(it.LineTotal),
		); err != nil {
			return fmt.Errorf("insert deal item: %w", err)
		}
	}
	return nil
}

func (r *Repo) loadItems(ctx context.Context, dealIDs []uuid.UUID) (map[uuid.UUID][]domain.SaleItem, error) {
	out := make(map[uuid.UUID][]domain.SaleItem, len(dealIDs))
	if len(dealIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, position`, dealIDs)
	if err != nil {
		return nil, fmt.Errorf("list deal items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal item: %w", err)
		}
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(dealNotFoundMsg)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Deal, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Deal{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR array_to_string(tags, ' ') ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if len(params.Stages) > 0 {
		stages := make([]string, len(params.Stages))
		for i, s := range params.Stages {
			stages[i] = string(s)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("stage = ANY($%d)", argIdx))
		args = append(args, stages)
		argIdx++
	}
	if len(params.Statuses) > 0 {
		statuses := make([]string, len(params.Statuses))
		for i, s := range params.Statuses {
			statuses[i] = string(s)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}
	if params.CustomerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("customer_id = $%d", argIdx))
		args = append(args, *params.CustomerID)
		argIdx++
	}
	if params.AssignedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("assigned_to = $%d", argIdx))
		args = append(args, *params.AssignedTo)
		argIdx++
	}
	if params.CreatedFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.CreatedFrom)
		argIdx++
	}
	if params.CreatedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.CreatedTo)
		argIdx++
	}
	if params.ExpectedCloseFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("expected_close_date >= $%d", argIdx))
		args = append(args, *params.ExpectedCloseFrom)
		argIdx++
	}
	if params.ExpectedCloseTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("expected_close_date <= $%d", argIdx))
		args = append(args, *params.ExpectedCloseTo)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM deals WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	sortColumn := "created_at"
	switch params.SortBy {
	case "value":
		sortColumn = "value"
	case "title":
		sortColumn = "title"
	case "probability":
		sortColumn = "probability"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM deals
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, dealColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	deals := make([]domain.Deal, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, deal)
		ids = append(ids, deal.ID)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range deals {
		deals[i].Items = append(deals[i].Items, items[deals[i].ID]...)
	}
	return deals, total, nil
}

func (r *Repo) ListForStats(ctx context.Context, organizationID uuid.UUID) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE organization_id = $1 ORDER BY created_at`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list deals for stats: %w", err)
	}
	defer rows.Close()

	deals := make([]domain.Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func (r *Repo) ExistsForCustomer(ctx context.Context, organizationID, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM deals WHERE organization_id = $1 AND customer_id = $2)`,
		organizationID, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer deals: %w", err)
	}
	return exists, nil
}
