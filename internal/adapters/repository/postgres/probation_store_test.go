package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestProbationStore_FindDue(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewProbationStore(mock)

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(-24 * time.Hour)
	rows := pgxmock.NewRows(employeeColumnNames).
		AddRow("id-1", "E1", nil, "Taro", "", "Yamada", "Probation", nil, end, false, []byte(`{}`), end, end)

	mock.ExpectQuery(regexp.QuoteMeta("AND auto_updated IS NOT TRUE")).
		WithArgs("Probation", now).
		WillReturnRows(rows)

	due, err := store.FindDue(context.Background(), now)
	if err != nil {
		t.Fatalf("FindDue returned error: %v", err)
	}
	if len(due) != 1 || due[0].EmployeeID != "E1" {
		t.Fatalf("unexpected candidates: %+v", due)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProbationStore_PromoteIfDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "promoted", affected: 1, want: true},
		{name: "already promoted", affected: 0, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock := newMockPool(t)
			store := NewProbationStore(mock)

			mock.ExpectExec(regexp.QuoteMeta("SET employment_status = $1")).
				WithArgs("Permanent", now, "E1", "Probation", now).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			got, err := store.PromoteIfDue(context.Background(), "E1", now)
			if err != nil {
				t.Fatalf("PromoteIfDue returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestProbationStore_PromoteIfDue_Error(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewProbationStore(mock)

	expected := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "E1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(expected)

	if _, err := store.PromoteIfDue(context.Background(), "E1", time.Now()); !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}
