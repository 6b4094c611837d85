package identity

import (
	"context"
	"errors"
	"strings"
)

// Role は操作主体の権限区分です。
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
	RoleSystem   Role = "system"
)

// SystemUserID はスケジューラ起因の操作に使う予約済み ID です。
const SystemUserID = "system:probation-scheduler"

var (
	// ErrMissingIdentity は操作主体が指定されていない場合に返却されます。
	ErrMissingIdentity = errors.New("identity: missing identity")
	// ErrInvalidToken はトークン検証に失敗した場合に返却されます。
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrForbidden は権限が不足している場合に返却されます。
	ErrForbidden = errors.New("identity: forbidden")
)

// Identity は外部から与えられる操作主体です。
type Identity struct {
	UserID string
	Role   Role
}

// System はスケジューラ用の主体を返します。
func System() Identity {
	return Identity{UserID: SystemUserID, Role: RoleSystem}
}

// IsZero は主体が未設定かどうかを返します。
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.UserID) == ""
}

// HasRole は主体がいずれかのロールを持つかを返します。
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Verifier はトークンから主体を解決する外部協調者です。
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type contextKey struct{}

// WithIdentity はコンテキストに主体を格納します。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext はコンテキストから主体を取り出します。
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
