package probation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"go.uber.org/zap"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, audit.RecordInput) {}

// ErrPartialRun は一部の社員の昇格に失敗した場合に返却されます。
var ErrPartialRun = errors.New("probation: some promotions failed")

// Runner は試用期間チェックを一回実行する口です。
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Result は一回の実行結果です。
type Result struct {
	Candidates  int
	Promoted    int
	Skipped     int
	Failed      int
	PromotedIDs []string
}

// Service は試用期間終了者の自動昇格をまとめます。
// 実行形態 (常駐 cron / 外部トリガー) に依存しません。
type Service struct {
	store    Store
	recorder audit.Recorder
	clock    Clock
	actor    identity.Identity
	logger   *zap.SugaredLogger
}

// NewService は Service を生成します。
func NewService(store Store, recorder audit.Recorder, clock Clock, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		recorder: recorder,
		clock:    clock,
		actor:    identity.System(),
		logger:   logger.Named("probation").Sugar(),
	}
}

// Run は昇格対象を取得し、一件ずつ条件付き更新で昇格させます。
// 各更新は独立してコミットされるため、失敗後の再実行は常に安全です。
func (s *Service) Run(ctx context.Context) (*Result, error) {
	now := s.clock.Now()
	s.logger.Infow("running probation check", "now", now)

	candidates, err := s.store.FindDue(ctx, now)
	if err != nil {
		s.logger.Errorw("failed to query probation candidates", "error", err)
		return nil, fmt.Errorf("probation: find due: %w", err)
	}

	result := &Result{Candidates: len(candidates)}
	var errs []error

	for _, emp := range candidates {
		if err := ctx.Err(); err != nil {
			s.logger.Warnw("probation check aborted", "promoted", result.Promoted, "remaining", len(candidates)-result.Promoted-result.Skipped-result.Failed)
			return result, fmt.Errorf("probation: aborted: %w", err)
		}

		if !ShouldPromote(emp, now) {
			result.Skipped++
			continue
		}

		promoted, err := s.store.PromoteIfDue(ctx, emp.EmployeeID, now)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", emp.EmployeeID, err))
			s.logger.Errorw("failed to promote employee", "employee_id", emp.EmployeeID, "error", err)
			continue
		}
		if !promoted {
			// 並行実行や手動編集で既に条件を外れている。
			result.Skipped++
			continue
		}

		result.Promoted++
		result.PromotedIDs = append(result.PromotedIDs, emp.EmployeeID)
		s.recorder.Record(ctx, audit.RecordInput{
			Action:         audit.ActionAutoPromote,
			TargetResource: audit.ResourceEmployee,
			TargetID:       emp.EmployeeID,
			PerformedBy:    s.actor.UserID,
			Details: map[string]any{
				"from":             string(employee.StatusProbation),
				"to":               string(employee.StatusPermanent),
				"probationEndDate": emp.EmploymentStatus.ProbationEndDate.UTC().Format(time.RFC3339),
			},
		})
	}

	if result.Promoted > 0 {
		s.logger.Infow(fmt.Sprintf("updated %d employees from Probation to Permanent", result.Promoted), "count", result.Promoted)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", ErrPartialRun, errors.Join(errs...))
	}
	return result, nil
}

// DryRun は昇格対象を書き込みなしで返します。
func (s *Service) DryRun(ctx context.Context) ([]*employee.Employee, error) {
	now := s.clock.Now()
	candidates, err := s.store.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("probation: find due: %w", err)
	}

	due := make([]*employee.Employee, 0, len(candidates))
	for _, emp := range candidates {
		if ShouldPromote(emp, now) {
			due = append(due, emp)
		}
	}
	return due, nil
}
