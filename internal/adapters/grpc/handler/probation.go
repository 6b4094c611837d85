package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/codex-hrm/internal/adapters/grpc/adminv1"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

// ProbationAdminHandler は ProbationAdminService の gRPC 実装です。
type ProbationAdminHandler struct {
	runner probation.Runner
	adminv1.UnimplementedProbationAdminServiceServer
}

// NewProbationAdminHandler は ProbationAdminHandler を生成します。
func NewProbationAdminHandler(runner probation.Runner) *ProbationAdminHandler {
	return &ProbationAdminHandler{runner: runner}
}

// RunProbationCheck は試用期間チェックを一回実行し、昇格件数を返します。
func (h *ProbationAdminHandler) RunProbationCheck(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	result, err := h.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, probation.ErrPartialRun) && result != nil {
			return nil, status.Errorf(codes.Internal, "probation check failed: promoted=%d failed=%d", result.Promoted, result.Failed)
		}
		return nil, toStatusError(err)
	}
	return wrapperspb.Int64(int64(result.Promoted)), nil
}
