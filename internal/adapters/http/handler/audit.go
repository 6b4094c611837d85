package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
)

// AuditLister は監査ログの参照口です。
type AuditLister interface {
	ListEntries(ctx context.Context, in audit.ListEntriesInput) ([]*audit.Entry, error)
}

// AuditHandler は監査ログ REST API の実装です。
type AuditHandler struct {
	svc AuditLister
}

// NewAuditHandler は AuditHandler を生成します。
func NewAuditHandler(svc AuditLister) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type auditEntryResponse struct {
	ID             string         `json:"id"`
	Action         string         `json:"action"`
	TargetResource string         `json:"targetResource"`
	TargetID       string         `json:"targetId"`
	PerformedBy    string         `json:"performedBy"`
	Details        map[string]any `json:"details"`
	Timestamp      time.Time      `json:"timestamp"`
}

// List は targetResource / targetId / action / limit で絞り込んだ監査ログを新しい順に返します。
func (h *AuditHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, audit.ErrInvalidLimit)
			return
		}
		limit = n
	}

	entries, err := h.svc.ListEntries(c.Request.Context(), audit.ListEntriesInput{
		TargetResource: c.Query("targetResource"),
		TargetID:       c.Query("targetId"),
		Action:         c.Query("action"),
		Limit:          limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:             e.ID,
			Action:         string(e.Action),
			TargetResource: e.TargetResource,
			TargetID:       e.TargetID,
			PerformedBy:    e.PerformedBy,
			Details:        e.Details,
			Timestamp:      e.Timestamp,
		})
	}
	c.JSON(http.StatusOK, out)
}
