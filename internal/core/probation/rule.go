package probation

import (
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
)

// ShouldPromote は社員を Probation から Permanent へ自動昇格させるべきかを判定します。
// 副作用はなく、同じ入力には常に同じ結果を返します。
// 終了日が未設定の Probation は手動管理とみなし、昇格させません。
func ShouldPromote(emp *employee.Employee, now time.Time) bool {
	if emp == nil {
		return false
	}
	status := emp.EmploymentStatus
	if status.Status != employee.StatusProbation {
		return false
	}
	if status.ProbationEndDate == nil {
		return false
	}
	if status.ProbationEndDate.After(now) {
		return false
	}
	return !status.AutoUpdated
}
