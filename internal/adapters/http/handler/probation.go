package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
)

// ProbationHandler は外部スケジューラ向けの試用期間チェック起動口です。
type ProbationHandler struct {
	runner probation.Runner
}

// NewProbationHandler は ProbationHandler を生成します。
func NewProbationHandler(runner probation.Runner) *ProbationHandler {
	return &ProbationHandler{runner: runner}
}

type probationCheckResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// Check は試用期間チェックを一回実行し、昇格件数を返します。
func (h *ProbationHandler) Check(c *gin.Context) {
	result, err := h.runner.Run(c.Request.Context())
	if err != nil {
		updated := 0
		if result != nil {
			updated = result.Promoted
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, probationCheckResponse{
			Message: "Probation check failed",
			Updated: updated,
		})
		return
	}

	c.JSON(http.StatusOK, probationCheckResponse{
		Message: "Probation check completed",
		Updated: result.Promoted,
	})
}
