package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var auditColumnNames = []string{"id", "action", "target_resource", "target_id", "performed_by", "details", "created_at"}

func TestAuditRepository_Append(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	ts := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	entry := &audit.Entry{
		ID:             "log-1",
		Action:         audit.ActionAutoPromote,
		TargetResource: audit.ResourceEmployee,
		TargetID:       "E1",
		PerformedBy:    "system:probation-scheduler",
		Timestamp:      ts,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("log-1", "AUTO_PROMOTE", "Employee", "E1", "system:probation-scheduler", []byte(`{}`), ts).
		WillReturnRows(pgxmock.NewRows(auditColumnNames).
			AddRow("log-1", "AUTO_PROMOTE", "Employee", "E1", "system:probation-scheduler", []byte(`{}`), ts))

	got, err := repo.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if got.Action != audit.ActionAutoPromote || got.Details == nil {
		t.Fatalf("unexpected entry: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	ts := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	action := audit.ActionUpdate

	mock.ExpectQuery(regexp.QuoteMeta("WHERE target_resource = $1 AND target_id = $2 AND action = $3")).
		WithArgs("Employee", "E1", "UPDATE", 10).
		WillReturnRows(pgxmock.NewRows(auditColumnNames).
			AddRow("log-2", "UPDATE", "Employee", "E1", "user-1", []byte(`{"updates":["phone"]}`), ts.Add(time.Minute)).
			AddRow("log-1", "UPDATE", "Employee", "E1", "user-1", []byte(`{"updates":["email"]}`), ts))

	entries, err := repo.List(context.Background(), audit.ListFilter{
		TargetResource: "Employee",
		TargetID:       "E1",
		Action:         &action,
		Limit:          10,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "log-2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	updates, ok := entries[0].Details["updates"].([]any)
	if !ok || len(updates) != 1 || updates[0] != "phone" {
		t.Fatalf("unexpected details: %+v", entries[0].Details)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_List_InvalidLimit(t *testing.T) {
	t.Parallel()

	repo := NewAuditRepository(newMockPool(t))
	if _, err := repo.List(context.Background(), audit.ListFilter{}); !errors.Is(err, audit.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}
