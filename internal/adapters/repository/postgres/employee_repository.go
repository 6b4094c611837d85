package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-hrm/internal/platform/db/postgres"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

const employeeColumns = `id, employee_id, user_id, first_name, middle_name, last_name,
               employment_status, start_date, probation_end_date, auto_updated,
               profile, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	profile, err := json.Marshal(e.Profile)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode profile: %w", err)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, employee_id, user_id, first_name, middle_name, last_name,
                               employment_status, start_date, probation_end_date, auto_updated,
                               profile, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING `+employeeColumns,
		e.ID,
		e.EmployeeID,
		nullableString(e.UserID),
		e.FirstName,
		e.MiddleName,
		e.LastName,
		nullableString(string(e.EmploymentStatus.Status)),
		nullableTime(e.EmploymentStatus.StartDate),
		nullableTime(e.EmploymentStatus.ProbationEndDate),
		e.EmploymentStatus.AutoUpdated,
		profile,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。employee_id は変更しません。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	profile, err := json.Marshal(e.Profile)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode profile: %w", err)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET user_id = $1,
               first_name = $2,
               middle_name = $3,
               last_name = $4,
               employment_status = $5,
               start_date = $6,
               probation_end_date = $7,
               auto_updated = $8,
               profile = $9,
               updated_at = $10
         WHERE employee_id = $11
        RETURNING `+employeeColumns,
		nullableString(e.UserID),
		e.FirstName,
		e.MiddleName,
		e.LastName,
		nullableString(string(e.EmploymentStatus.Status)),
		nullableTime(e.EmploymentStatus.StartDate),
		nullableTime(e.EmploymentStatus.ProbationEndDate),
		e.EmploymentStatus.AutoUpdated,
		profile,
		e.UpdatedAt,
		e.EmployeeID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, employeeID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByEmployeeID は業務キーで社員を取得します。
func (r *EmployeeRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE employee_id = $1
         LIMIT 1
    `, employeeID)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClause = " WHERE employment_status = $" + strconv.Itoa(len(args))
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees, err := collectEmployees(rows, filter.Limit)
	if err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

func collectEmployees(rows pgx.Rows, capacity int) ([]*employee.Employee, error) {
	employees := make([]*employee.Employee, 0, capacity)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return employees, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id               string
		employeeID       string
		userID           sql.NullString
		firstName        string
		middleName       string
		lastName         string
		status           sql.NullString
		startDate        sql.NullTime
		probationEndDate sql.NullTime
		autoUpdated      bool
		profileRaw       []byte
		createdAt        time.Time
		updatedAt        time.Time
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&userID,
		&firstName,
		&middleName,
		&lastName,
		&status,
		&startDate,
		&probationEndDate,
		&autoUpdated,
		&profileRaw,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	var profile employee.Profile
	if len(profileRaw) > 0 {
		if err := json.Unmarshal(profileRaw, &profile); err != nil {
			return nil, fmt.Errorf("postgres: decode profile of %s: %w", employeeID, err)
		}
	}

	return &employee.Employee{
		ID:         id,
		EmployeeID: employeeID,
		UserID:     userID.String,
		FirstName:  firstName,
		MiddleName: middleName,
		LastName:   lastName,
		EmploymentStatus: employee.EmploymentStatus{
			Status:           employee.Status(status.String),
			StartDate:        timePtr(startDate),
			ProbationEndDate: timePtr(probationEndDate),
			AutoUpdated:      autoUpdated,
		},
		Profile:   profile,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrEmployeeIDAlreadyExists
		case checkViolationCode:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, employee.ErrInvalidStatus)
		}
	}

	return err
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
