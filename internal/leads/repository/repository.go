package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipeline_backend/internal/leads/domain"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*Repo)(nil)

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL lead repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const leadColumns = `id, organization_id, first_name, last_name, email, phone, mobile, job_title,
	company_name, industry, company_size, source, campaign, budget_range, timeline,
	lead_score, qualification_status, stage, status, assigned_to, next_follow_up, last_contact,
	converted_to_customer, converted_customer_id, converted_at, notes, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	var qualification, stage, status string
	err := row.Scan(
		&l.ID, &l.OrganizationID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Mobile, &l.JobTitle,
		&l.CompanyName, &l.Industry, &l.CompanySize, &l.Source, &l.Campaign, &l.BudgetRange, &l.Timeline,
		&l.LeadScore, &qualification, &stage, &status, &l.AssignedTo, &l.NextFollowUp, &l.LastContact,
		&l.ConvertedToCustomer, &l.ConvertedCustomerID, &l.ConvertedAt, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	l.QualificationStatus = domain.QualificationStatus(qualification)
	l.Stage = domain.Stage(stage)
	l.Status = domain.Status(status)
	return l, nil
}

func (r *Repo) Create(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	query := fmt.Sprintf(`
		INSERT INTO leads (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING %s`, leadColumns, leadColumns)

	created, err := scanLead(r.pool.QueryRow(ctx, query,
		l.ID, l.OrganizationID, l.FirstName, l.LastName, l.Email, l.Phone, l.Mobile, l.JobTitle,
		l.CompanyName, l.Industry, l.CompanySize, l.Source, l.Campaign, l.BudgetRange, l.Timeline,
		l.LeadScore, string(l.QualificationStatus), string(l.Stage), string(l.Status), l.AssignedTo, l.NextFollowUp, l.LastContact,
		l.ConvertedToCustomer, l.ConvertedCustomerID, l.ConvertedAt, l.Notes, l.CreatedAt, l.UpdatedAt,
	))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1 AND organization_id = $2`, leadColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repo) Update(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	query := fmt.Sprintf(`
		UPDATE leads SET
			first_name = $3, last_name = $4, email = $5, phone = $6, mobile = $7, job_title = $8,
			company_name = $9, industry = $10, company_size = $11, source = $12, campaign = $13,
			budget_range = $14, timeline = $15, lead_score = $16, qualification_status = $17,
			stage = $18, status = $19, assigned_to = $20, next_follow_up = $21, last_contact = $22,
			converted_to_customer = $23, converted_customer_id = $24, converted_at = $25,
			notes = $26, updated_at = $27
		WHERE id = $1 AND organization_id = $2
		RETURNING %s`, leadColumns)

	updated, err := scanLead(r.pool.QueryRow(ctx, query,
		l.ID, l.OrganizationID, l.FirstName, l.LastName, l.Email, l.Phone, l.Mobile, l.JobTitle,
		l.CompanyName, l.Industry, l.CompanySize, l.Source, l.Campaign,
		l.BudgetRange, l.Timeline, l.LeadScore, string(l.QualificationStatus),
		string(l.Stage), string(l.Status), l.AssignedTo, l.NextFollowUp, l.LastContact,
		l.ConvertedToCustomer, l.ConvertedCustomerID, l.ConvertedAt,
		l.Notes, l.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	if params.OrganizationID == uuid.Nil {
		return []domain.Lead{}, 0, nil
	}

	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company_name ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx, argIdx))
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
	if len(params.Stages) > 0 {
		stages := make([]string, len(params.Stages))
		for i, s := range params.Stages {
			stages[i] = string(s)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("stage = ANY($%d)", argIdx))
		args = append(args, stages)
		argIdx++
	}
	if params.AssignedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("assigned_to = $%d", argIdx))
		args = append(args, *params.AssignedTo)
		argIdx++
	}
	if params.Source != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("source ILIKE $%d", argIdx))
		args = append(args, params.Source)
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
	if params.MinScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lead_score >= $%d", argIdx))
		args = append(args, *params.MinScore)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	sortColumn := "created_at"
	switch params.SortBy {
	case "leadScore":
		sortColumn = "lead_score"
	case "lastName":
		sortColumn = "last_name"
	case "companyName":
		sortColumn = "company_name"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

func (r *Repo) Summary(ctx context.Context, organizationID uuid.UUID) (Summary, error) {
	summary := NewSummary()
	if organizationID == uuid.Nil {
		return summary, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, stage, COUNT(*), COALESCE(SUM(lead_score), 0)
		FROM leads
		WHERE organization_id = $1
		GROUP BY status, stage`, organizationID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize leads: %w", err)
	}
	defer rows.Close()

	scoreSum := 0
	for rows.Next() {
		var status, stage string
		var count, scores int
		if err := rows.Scan(&status, &stage, &count, &scores); err != nil {
			return Summary{}, fmt.Errorf("scan lead summary: %w", err)
		}
		summary.Total += count
		summary.ByStatus[domain.Status(status)] += count
		summary.ByStage[domain.Stage(stage)] += count
		scoreSum += scores
	}
	if rows.Err() != nil {
		return Summary{}, rows.Err()
	}
	if summary.Total > 0 {
		summary.AverageScore = float64(scoreSum) / float64(summary.Total)
	}
	return summary, nil
}

func (r *Repo) CountOpenByAssignee(ctx context.Context, organizationID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to, COUNT(*)
		FROM leads
		WHERE organization_id = $1 AND assigned_to IS NOT NULL AND status NOT IN ('converted', 'lost')
		GROUP BY assigned_to`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("count open leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan open lead count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}
