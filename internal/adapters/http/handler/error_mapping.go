package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
)

// errorResponse はエラー時の応答本文です。
type errorResponse struct {
	Message string `json:"message"`
}

func toHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, identity.ErrMissingIdentity),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, employee.ErrInvalidActor):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidEmployeeID),
		errors.Is(err, employee.ErrInvalidFirstName),
		errors.Is(err, employee.ErrInvalidLastName),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidProfile),
		errors.Is(err, employee.ErrInvalidAttachment),
		errors.Is(err, employee.ErrAutoUpdatedReadOnly),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, audit.ErrInvalidAction),
		errors.Is(err, audit.ErrInvalidLimit),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, employee.ErrEmployeeIDAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError はエラーを HTTP ステータスに変換して応答します。
// 500 の場合は内部の詳細を返さずログにのみ残します。
func abortWithError(c *gin.Context, err error) {
	code := toHTTPStatus(err)
	_ = c.Error(err)
	if code == http.StatusInternalServerError {
		c.AbortWithStatusJSON(code, errorResponse{Message: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(code, errorResponse{Message: err.Error()})
}
