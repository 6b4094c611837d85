package audit

import "context"

// Repository は監査ログ永続化の抽象です。更新・削除は提供しません。
type Repository interface {
	Append(ctx context.Context, entry *Entry) (*Entry, error)
	List(ctx context.Context, filter ListFilter) ([]*Entry, error)
}

// ListFilter は一覧取得用フィルタです。空文字の条件は無視されます。
type ListFilter struct {
	TargetResource string
	TargetID       string
	Action         *Action
	Limit          int
}
