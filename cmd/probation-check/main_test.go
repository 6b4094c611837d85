package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"go.uber.org/zap"
)

type stubService struct {
	due    []*employee.Employee
	result *probation.Result
	err    error
}

func (s stubService) DryRun(context.Context) ([]*employee.Employee, error) {
	return s.due, s.err
}

func (s stubService) Run(context.Context) (*probation.Result, error) {
	return s.result, s.err
}

func TestRunDry(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	svc := stubService{due: []*employee.Employee{{
		EmployeeID:       "E1",
		FirstName:        "Taro",
		LastName:         "Yamada",
		EmploymentStatus: employee.EmploymentStatus{Status: employee.StatusProbation, ProbationEndDate: &end},
	}}}

	var out bytes.Buffer
	if err := runDry(context.Background(), svc, &out); err != nil {
		t.Fatalf("runDry returned error: %v", err)
	}
	if !strings.Contains(out.String(), "E1\tTaro Yamada\t2025-03-31") || !strings.Contains(out.String(), "1 employees would be promoted") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunOnce_ReportsPartialResult(t *testing.T) {
	t.Parallel()

	svc := stubService{result: &probation.Result{Promoted: 2, Failed: 1}, err: probation.ErrPartialRun}

	var out bytes.Buffer
	err := runOnce(context.Background(), svc, &out, zap.NewNop())
	if !errors.Is(err, probation.ErrPartialRun) {
		t.Fatalf("expected ErrPartialRun, got %v", err)
	}
	if out.String() != "promoted=2 skipped=0 failed=1\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestEffectiveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/hrm.yaml")

	if got := effectiveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("flag should win, got %s", got)
	}
	if got := effectiveConfigPath(""); got != "/etc/hrm.yaml" {
		t.Fatalf("env should be used, got %s", got)
	}
}
