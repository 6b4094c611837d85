package probation

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
)

// Store は自動昇格に必要な永続化操作の抽象です。
type Store interface {
	// FindDue は昇格対象を一度の絞り込みクエリで取得します。
	FindDue(ctx context.Context, now time.Time) ([]*employee.Employee, error)
	// PromoteIfDue は条件を再確認しながら単一の原子的な更新で昇格させます。
	// 実際に更新された場合のみ true を返します。
	PromoteIfDue(ctx context.Context, employeeID string, now time.Time) (bool, error)
}
