package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Recorder は業務操作から監査ログを書き込むための口です。
// 書き込み失敗は呼び出し元に返しません。
type Recorder interface {
	Record(ctx context.Context, in RecordInput)
}

// UseCase は監査ログユースケースの公開インターフェースです。
type UseCase interface {
	Recorder
	ListEntries(ctx context.Context, in ListEntriesInput) ([]*Entry, error)
}

// Service は監査ログのユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	logger *zap.SugaredLogger
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, clock: clock, logger: logger.Named("audit").Sugar()}
}

// RecordInput は監査ログ書き込み時の入力です。
type RecordInput struct {
	Action         Action
	TargetResource string
	TargetID       string
	PerformedBy    string
	Details        map[string]any
}

// ListEntriesInput は一覧取得時の入力です。
type ListEntriesInput struct {
	TargetResource string
	TargetID       string
	Action         string
	Limit          int
}

// Record は監査ログを追記します。失敗はログに残すだけで業務処理は止めません。
func (s *Service) Record(ctx context.Context, in RecordInput) {
	entry, err := s.buildEntry(in)
	if err != nil {
		s.logger.Errorw("audit entry rejected", "action", in.Action, "target_id", in.TargetID, "error", err)
		return
	}

	if _, err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Errorw("failed to write audit entry",
			"action", entry.Action,
			"target_resource", entry.TargetResource,
			"target_id", entry.TargetID,
			"performed_by", entry.PerformedBy,
			"error", err,
		)
	}
}

// ListEntries は監査ログを新しい順に取得します。
func (s *Service) ListEntries(ctx context.Context, in ListEntriesInput) ([]*Entry, error) {
	limit, err := normalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}

	var actionPtr *Action
	if raw := strings.TrimSpace(in.Action); raw != "" {
		action := Action(strings.ToUpper(raw))
		if !isValidAction(action) {
			return nil, ErrInvalidAction
		}
		actionPtr = &action
	}

	return s.repo.List(ctx, ListFilter{
		TargetResource: strings.TrimSpace(in.TargetResource),
		TargetID:       strings.TrimSpace(in.TargetID),
		Action:         actionPtr,
		Limit:          limit,
	})
}

func (s *Service) buildEntry(in RecordInput) (*Entry, error) {
	if !isValidAction(in.Action) {
		return nil, fmt.Errorf("%q: %w", in.Action, ErrInvalidAction)
	}

	resource := strings.TrimSpace(in.TargetResource)
	if resource == "" {
		return nil, ErrInvalidResource
	}

	performedBy := strings.TrimSpace(in.PerformedBy)
	if performedBy == "" {
		return nil, ErrInvalidPerformedBy
	}

	details := in.Details
	if details == nil {
		details = map[string]any{}
	}

	return &Entry{
		ID:             uuid.NewString(),
		Action:         in.Action,
		TargetResource: resource,
		TargetID:       strings.TrimSpace(in.TargetID),
		PerformedBy:    performedBy,
		Details:        details,
		Timestamp:      s.clock.Now(),
	}, nil
}

func isValidAction(action Action) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete, ActionUploadDoc, ActionAutoPromote:
		return true
	default:
		return false
	}
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return defaultListLimit, nil
	}
	if limit < 0 || limit > maxListLimit {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}
