package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	pgdb "github.com/ogurasousui/codex-hrm/internal/platform/db/postgres"
)

// AuditRepository は監査ログを audit_logs テーブルへ追記します。
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append はエントリを追記します。
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode audit details: %w", err)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO audit_logs (id, action, target_resource, target_id, performed_by, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, action, target_resource, target_id, performed_by, details, created_at
    `,
		entry.ID,
		string(entry.Action),
		entry.TargetResource,
		entry.TargetID,
		entry.PerformedBy,
		raw,
		entry.Timestamp,
	)

	return scanAuditEntry(row)
}

// List は条件に合うエントリを新しい順に返します。
func (r *AuditRepository) List(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, error) {
	if filter.Limit <= 0 {
		return nil, audit.ErrInvalidLimit
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 3)

	if filter.TargetResource != "" {
		args = append(args, filter.TargetResource)
		conditions = append(conditions, "target_resource = $"+strconv.Itoa(len(args)))
	}
	if filter.TargetID != "" {
		args = append(args, filter.TargetID)
		conditions = append(conditions, "target_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Action != nil {
		args = append(args, string(*filter.Action))
		conditions = append(conditions, "action = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	query := `
        SELECT id, action, target_resource, target_id, performed_by, details, created_at
          FROM audit_logs` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT $` + strconv.Itoa(len(args)) + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0, filter.Limit)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*audit.Entry, error) {
	var (
		id             string
		action         string
		targetResource string
		targetID       string
		performedBy    string
		detailsRaw     []byte
		createdAt      time.Time
	)

	if err := row.Scan(&id, &action, &targetResource, &targetID, &performedBy, &detailsRaw, &createdAt); err != nil {
		return nil, err
	}

	details := map[string]any{}
	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &details); err != nil {
			return nil, fmt.Errorf("postgres: decode audit details of %s: %w", id, err)
		}
	}

	return &audit.Entry{
		ID:             id,
		Action:         audit.Action(action),
		TargetResource: targetResource,
		TargetID:       targetID,
		PerformedBy:    performedBy,
		Details:        details,
		Timestamp:      createdAt.UTC(),
	}, nil
}
