package employee

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, audit.RecordInput) {}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

var employeeIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Service は社員の作成・更新・削除を一手に引き受けるゲートウェイです。
// 試用期間終了日の導出と監査ログの記録はここでのみ行います。
type Service struct {
	repo     Repository
	recorder audit.Recorder
	clock    Clock
	tx       TransactionManager
	window   time.Duration
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	AddAttachment(ctx context.Context, in AddAttachmentInput) (*Attachment, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithProbationWindow は試用期間の長さを上書きします。
func WithProbationWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, recorder audit.Recorder, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{repo: repo, recorder: recorder, clock: clock, tx: tx, window: ProbationWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmploymentStatusInput は作成時の雇用状態です。AutoUpdated は常に false で作成されます。
type EmploymentStatusInput struct {
	Status           Status
	StartDate        *time.Time
	ProbationEndDate *time.Time
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Actor            identity.Identity
	EmployeeID       string
	UserID           string
	FirstName        string
	MiddleName       string
	LastName         string
	EmploymentStatus EmploymentStatusInput
	Profile          Profile
}

// EmploymentStatusUpdate は雇用状態の部分更新です。
type EmploymentStatusUpdate struct {
	Status              *Status
	StartDate           *time.Time
	StartDateSet        bool
	ProbationEndDate    *time.Time
	ProbationEndDateSet bool
	AutoUpdated         *bool
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更しません。
type UpdateEmployeeInput struct {
	Actor             identity.Identity
	EmployeeID        string
	UserID            *string
	FirstName         *string
	MiddleName        *string
	LastName          *string
	EmploymentStatus  *EmploymentStatusUpdate
	Email             *string
	Phone             *string
	DateOfBirth       *time.Time
	DateOfBirthSet    bool
	Gender            *string
	MaritalStatus     *string
	Nationality       *string
	Address           *Address
	JobInfo           *JobInfo
	EmergencyContacts *[]EmergencyContact
	Dependents        *[]Dependent
	Education         *[]Education
	EmploymentHistory *[]EmploymentHistory
	Attachments       *[]Attachment
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	Actor      identity.Identity
	EmployeeID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	EmployeeID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	PageSize  int
	PageToken string
	Status    *Status
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// AddAttachmentInput は添付書類登録時の入力です。
type AddAttachmentInput struct {
	Actor      identity.Identity
	EmployeeID string
	FileType   string
	FileName   string
	FilePath   string
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	if in.Actor.IsZero() {
		return nil, ErrInvalidActor
	}

	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	firstName, err := requireName(in.FirstName, ErrInvalidFirstName)
	if err != nil {
		return nil, err
	}

	lastName, err := requireName(in.LastName, ErrInvalidLastName)
	if err != nil {
		return nil, err
	}

	status, err := normalizeStatus(in.EmploymentStatus.Status)
	if err != nil {
		return nil, err
	}

	profile := normalizeProfile(in.Profile)
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	employmentStatus := EmploymentStatus{
		Status:      status,
		StartDate:   cloneTime(in.EmploymentStatus.StartDate),
		AutoUpdated: false,
	}
	if status == StatusProbation {
		employmentStatus.ProbationEndDate = s.probationEndDate(now, in.EmploymentStatus.ProbationEndDate)
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeIDNotExists(txCtx, employeeID); err != nil {
			return err
		}

		emp := &Employee{
			ID:               uuid.NewString(),
			EmployeeID:       employeeID,
			UserID:           strings.TrimSpace(in.UserID),
			FirstName:        firstName,
			MiddleName:       strings.TrimSpace(in.MiddleName),
			LastName:         lastName,
			EmploymentStatus: employmentStatus,
			Profile:          profile,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.RecordInput{
		Action:         audit.ActionCreate,
		TargetResource: audit.ResourceEmployee,
		TargetID:       created.EmployeeID,
		PerformedBy:    in.Actor.UserID,
		Details:        map[string]any{"name": created.FullName()},
	})

	return created, nil
}

// UpdateEmployee は社員情報を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if in.Actor.IsZero() {
		return nil, ErrInvalidActor
	}
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidEmployeeID)
	}

	var (
		updated *Employee
		changed []string
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByEmployeeID(txCtx, strings.TrimSpace(in.EmployeeID))
		if err != nil {
			return err
		}

		changed, err = s.applyUpdate(existing, in)
		if err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.RecordInput{
		Action:         audit.ActionUpdate,
		TargetResource: audit.ResourceEmployee,
		TargetID:       updated.EmployeeID,
		PerformedBy:    in.Actor.UserID,
		Details:        map[string]any{"updates": changed},
	})

	return updated, nil
}

// DeleteEmployee は社員を削除します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if in.Actor.IsZero() {
		return ErrInvalidActor
	}
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return fmt.Errorf("employee_id: %w", ErrInvalidEmployeeID)
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, employeeID)
	}); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.RecordInput{
		Action:         audit.ActionDelete,
		TargetResource: audit.ResourceEmployee,
		TargetID:       employeeID,
		PerformedBy:    in.Actor.UserID,
		Details:        map[string]any{},
	})

	return nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidEmployeeID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByEmployeeID(txCtx, employeeID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		status, err := normalizeStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if status != "" {
			statusPtr = &status
		}
	}

	var (
		employees []*Employee
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		resultEmployees, token, err := s.repo.List(txCtx, ListEmployeesFilter{
			Status: statusPtr,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		employees = resultEmployees
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// AddAttachment は添付書類のメタデータを社員に追加します。
func (s *Service) AddAttachment(ctx context.Context, in AddAttachmentInput) (*Attachment, error) {
	if in.Actor.IsZero() {
		return nil, ErrInvalidActor
	}
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidEmployeeID)
	}

	attachment := Attachment{
		FileType: strings.TrimSpace(in.FileType),
		FileName: strings.TrimSpace(in.FileName),
		FilePath: strings.TrimSpace(in.FilePath),
	}
	if attachment.FileType == "" {
		attachment.FileType = "Document"
	}
	if attachment.FileName == "" || attachment.FilePath == "" {
		return nil, ErrInvalidAttachment
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByEmployeeID(txCtx, employeeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		attachment.UploadDate = now
		existing.Profile.Attachments = append(existing.Profile.Attachments, attachment)
		existing.UpdatedAt = now

		_, err = s.repo.Update(txCtx, existing)
		return err
	}); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.RecordInput{
		Action:         audit.ActionUploadDoc,
		TargetResource: audit.ResourceEmployee,
		TargetID:       employeeID,
		PerformedBy:    in.Actor.UserID,
		Details:        map[string]any{"file": attachment.FileName},
	})

	return &attachment, nil
}

// applyUpdate は入力を existing に反映し、実際に値が変わったトップレベルのフィールド名を返します。
func (s *Service) applyUpdate(existing *Employee, in UpdateEmployeeInput) ([]string, error) {
	changed := make([]string, 0, 4)
	track := func(name string, before, after any) {
		if !reflect.DeepEqual(before, after) {
			changed = append(changed, name)
		}
	}

	if in.UserID != nil {
		userID := strings.TrimSpace(*in.UserID)
		track("userId", existing.UserID, userID)
		existing.UserID = userID
	}

	if in.FirstName != nil {
		name, err := requireName(*in.FirstName, ErrInvalidFirstName)
		if err != nil {
			return nil, err
		}
		track("firstName", existing.FirstName, name)
		existing.FirstName = name
	}

	if in.MiddleName != nil {
		name := strings.TrimSpace(*in.MiddleName)
		track("middleName", existing.MiddleName, name)
		existing.MiddleName = name
	}

	if in.LastName != nil {
		name, err := requireName(*in.LastName, ErrInvalidLastName)
		if err != nil {
			return nil, err
		}
		track("lastName", existing.LastName, name)
		existing.LastName = name
	}

	if in.EmploymentStatus != nil {
		next, err := s.applyEmploymentStatus(existing.EmploymentStatus, in.EmploymentStatus)
		if err != nil {
			return nil, err
		}
		track("employmentStatus", existing.EmploymentStatus, next)
		existing.EmploymentStatus = next
	}

	profile := existing.Profile
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		track("email", profile.Email, email)
		profile.Email = email
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		track("phone", profile.Phone, phone)
		profile.Phone = phone
	}
	if in.DateOfBirthSet {
		dob := cloneTime(in.DateOfBirth)
		track("dateOfBirth", profile.DateOfBirth, dob)
		profile.DateOfBirth = dob
	}
	if in.Gender != nil {
		track("gender", profile.Gender, *in.Gender)
		profile.Gender = *in.Gender
	}
	if in.MaritalStatus != nil {
		track("maritalStatus", profile.MaritalStatus, *in.MaritalStatus)
		profile.MaritalStatus = *in.MaritalStatus
	}
	if in.Nationality != nil {
		track("nationality", profile.Nationality, *in.Nationality)
		profile.Nationality = *in.Nationality
	}
	if in.Address != nil {
		address := *in.Address
		track("address", profile.Address, &address)
		profile.Address = &address
	}
	if in.JobInfo != nil {
		track("jobInfo", profile.JobInfo, *in.JobInfo)
		profile.JobInfo = *in.JobInfo
	}
	if in.EmergencyContacts != nil {
		track("emergencyContacts", profile.EmergencyContacts, *in.EmergencyContacts)
		profile.EmergencyContacts = *in.EmergencyContacts
	}
	if in.Dependents != nil {
		track("dependents", profile.Dependents, *in.Dependents)
		profile.Dependents = *in.Dependents
	}
	if in.Education != nil {
		track("education", profile.Education, *in.Education)
		profile.Education = *in.Education
	}
	if in.EmploymentHistory != nil {
		track("employmentHistory", profile.EmploymentHistory, *in.EmploymentHistory)
		profile.EmploymentHistory = *in.EmploymentHistory
	}
	if in.Attachments != nil {
		track("attachments", profile.Attachments, *in.Attachments)
		profile.Attachments = *in.Attachments
	}

	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	existing.Profile = profile

	return changed, nil
}

// applyEmploymentStatus は雇用状態の部分更新を適用します。
// Probation 以外から Probation に入った場合のみ終了日を再計算し、AutoUpdated を戻します。
func (s *Service) applyEmploymentStatus(current EmploymentStatus, in *EmploymentStatusUpdate) (EmploymentStatus, error) {
	next := current

	if in.Status != nil {
		status, err := normalizeStatus(*in.Status)
		if err != nil {
			return EmploymentStatus{}, err
		}
		next.Status = status
	}

	if in.StartDateSet {
		next.StartDate = cloneTime(in.StartDate)
	}

	if in.ProbationEndDateSet {
		next.ProbationEndDate = cloneTime(in.ProbationEndDate)
	}

	if in.AutoUpdated != nil {
		// 手動編集で自動昇格フラグを立てることはできない。
		if *in.AutoUpdated && !current.AutoUpdated {
			return EmploymentStatus{}, ErrAutoUpdatedReadOnly
		}
		next.AutoUpdated = *in.AutoUpdated
	}

	if next.Status == StatusProbation && current.Status != StatusProbation {
		var supplied *time.Time
		if in.ProbationEndDateSet {
			supplied = in.ProbationEndDate
		}
		next.ProbationEndDate = s.probationEndDate(s.clock.Now(), supplied)
		next.AutoUpdated = false
	}

	return next, nil
}

func (s *Service) probationEndDate(now time.Time, supplied *time.Time) *time.Time {
	if supplied != nil {
		end := supplied.UTC()
		return &end
	}
	end := now.Add(s.window)
	return &end
}

func (s *Service) ensureEmployeeIDNotExists(ctx context.Context, employeeID string) error {
	emp, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmployeeIDAlreadyExists
	}
	return nil
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !employeeIDPattern.MatchString(trimmed) {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}

func requireName(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return trimmed, nil
}

func normalizeStatus(raw Status) (Status, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", nil
	}
	for _, known := range []Status{StatusProbation, StatusPermanent, StatusContract, StatusInternship, StatusPartTime} {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", ErrInvalidStatus
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := t.UTC()
	return &clone
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
