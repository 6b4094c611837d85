package probation

import (
	"testing"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
)

func TestShouldPromote(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name   string
		status employee.EmploymentStatus
		want   bool
	}{
		{name: "due probation", status: employee.EmploymentStatus{Status: employee.StatusProbation, ProbationEndDate: &past}, want: true},
		{name: "ends exactly now", status: employee.EmploymentStatus{Status: employee.StatusProbation, ProbationEndDate: &now}, want: true},
		{name: "future end date", status: employee.EmploymentStatus{Status: employee.StatusProbation, ProbationEndDate: &future}},
		{name: "manually managed probation", status: employee.EmploymentStatus{Status: employee.StatusProbation}},
		{name: "already auto updated", status: employee.EmploymentStatus{Status: employee.StatusProbation, ProbationEndDate: &past, AutoUpdated: true}},
		{name: "permanent", status: employee.EmploymentStatus{Status: employee.StatusPermanent, ProbationEndDate: &past}},
		{name: "contract", status: employee.EmploymentStatus{Status: employee.StatusContract}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			emp := &employee.Employee{EmployeeID: "E1", EmploymentStatus: tt.status}
			if got := ShouldPromote(emp, now); got != tt.want {
				t.Fatalf("ShouldPromote() = %v, want %v", got, tt.want)
			}
			if again := ShouldPromote(emp, now); again != tt.want {
				t.Fatal("ShouldPromote must be deterministic")
			}
		})
	}
}

func TestShouldPromote_NilRecord(t *testing.T) {
	t.Parallel()

	if ShouldPromote(nil, time.Now()) {
		t.Fatal("nil record must never promote")
	}
}
