package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"go.uber.org/zap"
)

const (
	maxJSONBodyBytes    = 10 << 20
	multipartOverhead   = 1 << 20
	nextPageTokenHeader = "X-Next-Page-Token"
)

// AttachmentStorage は添付書類の実体を保存する外部協調者です。
type AttachmentStorage interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(path string) error
}

// EmployeeHandler は社員 REST API の実装です。
type EmployeeHandler struct {
	svc            employee.UseCase
	storage        AttachmentStorage
	maxUploadBytes int64
	logger         *zap.SugaredLogger
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase, storage AttachmentStorage, maxUploadBytes int64, logger *zap.Logger) *EmployeeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeHandler{
		svc:            svc,
		storage:        storage,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("employee_handler").Sugar(),
	}
}

type employmentStatusResponse struct {
	Status           string     `json:"status,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	ProbationEndDate *time.Time `json:"probationEndDate,omitempty"`
	AutoUpdated      bool       `json:"autoUpdated"`
}

type employeeResponse struct {
	ID               string                   `json:"id"`
	EmployeeID       string                   `json:"employeeId"`
	UserID           string                   `json:"userId,omitempty"`
	FirstName        string                   `json:"firstName"`
	MiddleName       string                   `json:"middleName,omitempty"`
	LastName         string                   `json:"lastName"`
	EmploymentStatus employmentStatusResponse `json:"employmentStatus"`
	employee.Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// List は社員一覧を返します。次ページがある場合は X-Next-Page-Token を付与します。
func (h *EmployeeHandler) List(c *gin.Context) {
	pageSize := 0
	if raw := c.Query("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("pageSize: %w", employee.ErrInvalidPageSize))
			return
		}
		pageSize = n
	}

	in := employee.ListEmployeesInput{
		PageSize:  pageSize,
		PageToken: c.Query("pageToken"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := employee.Status(raw)
		in.Status = &status
	}

	result, err := h.svc.ListEmployees(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]employeeResponse, 0, len(result.Employees))
	for _, emp := range result.Employees {
		out = append(out, toEmployeeResponse(emp))
	}
	if result.NextPageToken != "" {
		c.Header(nextPageTokenHeader, result.NextPageToken)
	}
	c.JSON(http.StatusOK, out)
}

// Get は社員を一件返します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	emp, err := h.svc.GetEmployee(c.Request.Context(), employee.GetEmployeeInput{EmployeeID: c.Param("id")})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEmployeeResponse(emp))
}

// Create は社員を作成します。
func (h *EmployeeHandler) Create(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	fields, err := h.readFields(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	in, err := fields.toCreateInput(actor)
	if err != nil {
		abortWithError(c, err)
		return
	}

	created, err := h.svc.CreateEmployee(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEmployeeResponse(created))
}

// Update は社員を部分更新します。本文に含まれないフィールドは変更しません。
func (h *EmployeeHandler) Update(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	fields, err := h.readFields(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	in, err := fields.toUpdateInput(actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		abortWithError(c, err)
		return
	}

	updated, err := h.svc.UpdateEmployee(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEmployeeResponse(updated))
}

// Delete は社員を削除します。
func (h *EmployeeHandler) Delete(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	if err := h.svc.DeleteEmployee(c.Request.Context(), employee.DeleteEmployeeInput{
		Actor:      actor,
		EmployeeID: c.Param("id"),
	}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Employee deleted"})
}

// UploadAttachment は multipart の file を保存し、社員の添付書類として登録します。
func (h *EmployeeHandler) UploadAttachment(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			abortWithError(c, errPayloadTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			abortWithError(c, fmt.Errorf("%w: no file uploaded", errInvalidRequest))
		default:
			abortWithError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		}
		return
	}
	if fh.Size > h.maxUploadBytes {
		abortWithError(c, errPayloadTooLarge)
		return
	}

	path, err := h.storage.Save(fh)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	attachment, err := h.svc.AddAttachment(c.Request.Context(), employee.AddAttachmentInput{
		Actor:      actor,
		EmployeeID: c.Param("id"),
		FileType:   c.PostForm("fileType"),
		FileName:   fh.Filename,
		FilePath:   path,
	})
	if err != nil {
		if rmErr := h.storage.Remove(path); rmErr != nil {
			h.logger.Warnw("failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, attachment)
}

func (h *EmployeeHandler) readFields(c *gin.Context) (*employeeFields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errPayloadTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return decodeEmployeeFields(body)
}

func toEmployeeResponse(emp *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:         emp.ID,
		EmployeeID: emp.EmployeeID,
		UserID:     emp.UserID,
		FirstName:  emp.FirstName,
		MiddleName: emp.MiddleName,
		LastName:   emp.LastName,
		EmploymentStatus: employmentStatusResponse{
			Status:           string(emp.EmploymentStatus.Status),
			StartDate:        emp.EmploymentStatus.StartDate,
			ProbationEndDate: emp.EmploymentStatus.ProbationEndDate,
			AutoUpdated:      emp.EmploymentStatus.AutoUpdated,
		},
		Profile:   emp.Profile,
		CreatedAt: emp.CreatedAt,
		UpdatedAt: emp.UpdatedAt,
	}
}
