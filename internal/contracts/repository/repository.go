package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/internal/contracts/domain"
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

// New creates a PostgreSQL contract repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const contractColumns = `id, organization_id, contract_number, title, description, type, status, customer_id,
	customer_name, value::text, currency, start_date, end_date, assigned_to, notes, deal_id, deal_title,
	created_at, updated_at`

func scanContract(row pgx.Row) (domain.Contract, error) {
	var c domain.Contract
	var status, value string
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.ContractNumber, &c.Title, &c.Description, &c.Type, &status, &c.CustomerID,
		&c.CustomerName, &value, &c.Currency, &c.StartDate, &c.EndDate, &c.AssignedTo, &c.Notes, &c.DealID, &c.DealTitle,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Contract{}, err
	}
	if c.Value, err = db.ParseNumeric(value); err != nil {
		return domain.Contract{}, err
	}
	c.Status = domain.Status(status)
	c.ApprovalHistory = []domain.ApprovalRecord{}
	return c, nil
}

// Create draws the next contract number from contract_number_seq.
func (r *Repo) Create(ctx context.Context, c domain.Contract) (domain.Contract, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('contract_number_seq')`).Scan(&seq); err != nil {
		return domain.Contract{}, fmt.Errorf("next contract number: %w", err)
	}
	c.ContractNumber = domain.FormatNumber(seq)

	created, err := scanContract(r.pool.QueryRow(ctx, `
		INSERT INTO contracts (id, organization_id, contract_number, title, description, type, status, customer_id,
			customer_name, value, currency, start_date, end_date, assigned_to, notes, deal_id, deal_title,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+contractColumns,
		c.ID, c.OrganizationID, c.ContractNumber, c.Title, c.Description, c.Type, string(c.Status), c.CustomerID,
		c.CustomerName, db.NumericArg(c.Value), c.Currency, c.StartDate, c.EndDate, c.AssignedTo, c.Notes, c.DealID, c.DealTitle,
		c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		return domain.Contract{}, fmt.Errorf("insert contract: %w", err)
	}
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Contract, error) {
	c, err := scanContract(r.pool.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	if err != nil {
		return domain.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	if c.ApprovalHistory, err = r.loadApprovals(ctx, c.ID); err != nil {
		return domain.Contract{}, err
	}
	return c, nil
}

func (r *Repo) loadApprovals(ctx context.Context, contractID uuid.UUID) ([]domain.ApprovalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stage, approver, status, comments, approved_at
		FROM contract_approvals
		WHERE contract_id = $1
		ORDER BY seq`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list contract approvals: %w", err)
	}
	defer rows.Close()

	history := make([]domain.ApprovalRecord, 0)
	for rows.Next() {
		var a domain.ApprovalRecord
		if err := rows.Scan(&a.ID, &a.Stage, &a.Approver, &a.Status, &a.Comments, &a.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scan contract approval: %w", err)
		}
		history = append(history, a)
	}
	return history, rows.Err()
}

func (r *Repo) Update(ctx context.Context, c domain.Contract) (domain.Contract, error) {
	updated, err := scanContract(r.pool.QueryRow(ctx, updateContractSQL,
		c.ID, c.OrganizationID, c.Title, c.Description, c.Type, string(c.Status), c.CustomerName,
		db.NumericArg(c.Value), c.Currency, c.StartDate, c.EndDate, c.AssignedTo, c.Notes, c.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	if err != nil {
		return domain.Contract{}, fmt.Errorf("update contract: %w", err)
	}
	if updated.ApprovalHistory, err = r.loadApprovals(ctx, updated.ID); err != nil {
		return domain.Contract{}, err
	}
	return updated, nil
}

const updateContractSQL = `
	UPDATE contracts SET
		title = $3, description = $4, type = $5, status = $6, customer_name = $7, value = $8::numeric,
		currency = $9, start_date = $10, end_date = $11, assigned_to = $12, notes = $13, updated_at = $14
	WHERE id = $1 AND organization_id = $2
	RETURNING ` + contractColumns

// AppendApproval stores the decision and the resulting contract status together.
func (r *Repo) AppendApproval(ctx context.Context, c domain.Contract, record domain.ApprovalRecord) (domain.Contract, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Contract{}, fmt.Errorf("begin approval tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := scanContract(tx.QueryRow(ctx, updateContractSQL,
		c.ID, c.OrganizationID, c.Title, c.Description, c.Type, string(c.Status), c.CustomerName,
		db.NumericArg(c.Value), c.Currency, c.StartDate, c.EndDate, c.AssignedTo, c.Notes, c.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contract{}, apperr.NotFound(contractNotFoundMsg)
	}
	if err != nil {
		return domain.Contract{}, fmt.Errorf("update contract status: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO contract_approvals (id, contract_id, stage, approver, status, comments, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, c.ID, record.Stage, record.Approver, record.Status, record.Comments, record.ApprovedAt,
	); err != nil {
		return domain.Contract{}, fmt.Errorf("insert contract approval: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Contract{}, fmt.Errorf("commit approval: %w", err)
	}

	if updated.ApprovalHistory, err = r.loadApprovals(ctx, updated.ID); err != nil {
		return domain.Contract{}, err
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contractNotFoundMsg)
	}
	return nil
}

// List returns contract rows without their approval history.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Contract, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Contract{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(contract_number ILIKE $%d OR title ILIKE $%d OR customer_name ILIKE $%d OR deal_title ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
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
	if params.Type != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, params.Type)
		argIdx++
	}
	if params.CustomerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("customer_id = $%d", argIdx))
		args = append(args, *params.CustomerID)
		argIdx++
	}
	if params.DealID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("deal_id = $%d", argIdx))
		args = append(args, *params.DealID)
		argIdx++
	}
	if params.StartFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("start_date >= $%d", argIdx))
		args = append(args, *params.StartFrom)
		argIdx++
	}
	if params.StartTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("start_date <= $%d", argIdx))
		args = append(args, *params.StartTo)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM contracts WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	sortColumn := "created_at"
	switch params.SortBy {
	case "contractNumber":
		sortColumn = "contract_number"
	case "value":
		sortColumn = "value"
	case "startDate":
		sortColumn = "start_date"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM contracts
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, contractColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contract: %w", err)
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}
