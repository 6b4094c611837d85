package audit

import "time"

// Action は監査ログの操作種別です。
type Action string

const (
	ActionCreate      Action = "CREATE"
	ActionUpdate      Action = "UPDATE"
	ActionDelete      Action = "DELETE"
	ActionUploadDoc   Action = "UPLOAD_DOC"
	ActionAutoPromote Action = "AUTO_PROMOTE"
)

// ResourceEmployee は社員リソースを表す対象名です。
const ResourceEmployee = "Employee"

// Entry は追記専用の監査ログエントリです。
type Entry struct {
	ID             string
	Action         Action
	TargetResource string
	TargetID       string
	PerformedBy    string
	Details        map[string]any
	Timestamp      time.Time
}
