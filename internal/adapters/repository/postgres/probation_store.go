package postgres

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-hrm/internal/platform/db/postgres"
)

// ProbationStore は試用期間チェック用の検索と条件付き昇格を提供します。
type ProbationStore struct {
	pool pgdb.Queryer
}

// NewProbationStore は ProbationStore を生成します。
func NewProbationStore(pool pgdb.Queryer) *ProbationStore {
	return &ProbationStore{pool: pool}
}

// FindDue は試用期間が終了し、まだ自動昇格していない社員を返します。
func (s *ProbationStore) FindDue(ctx context.Context, now time.Time) ([]*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE employment_status = $1
           AND probation_end_date IS NOT NULL
           AND probation_end_date <= $2
           AND auto_updated IS NOT TRUE
         ORDER BY probation_end_date ASC, employee_id ASC
    `, string(employee.StatusProbation), now.UTC())
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	return collectEmployees(rows, 0)
}

// PromoteIfDue は条件を満たしている場合に限り社員を Permanent に更新します。
// 条件は WHERE 句で再評価されるため、並行実行でも昇格は一度だけ行われます。
func (s *ProbationStore) PromoteIfDue(ctx context.Context, employeeID string, now time.Time) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET employment_status = $1,
               auto_updated = TRUE,
               updated_at = $2
         WHERE employee_id = $3
           AND employment_status = $4
           AND probation_end_date IS NOT NULL
           AND probation_end_date <= $5
           AND auto_updated IS NOT TRUE
    `,
		string(employee.StatusPermanent),
		now.UTC(),
		employeeID,
		string(employee.StatusProbation),
		now.UTC(),
	)
	if err != nil {
		return false, translateEmployeePgError(err)
	}
	return tag.RowsAffected() == 1, nil
}
