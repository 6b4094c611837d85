package identity

import (
	"context"
	"testing"
)

func TestFromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithIdentity(context.Background(), Identity{UserID: "user-1", Role: RoleHR})

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got.UserID != "user-1" || got.Role != RoleHR {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestFromContext_ZeroIdentityIsMissing(t *testing.T) {
	t.Parallel()

	ctx := WithIdentity(context.Background(), Identity{UserID: "  "})
	if _, ok := FromContext(ctx); ok {
		t.Fatal("blank user id must not count as an identity")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must not carry an identity")
	}
}

func TestIdentity_HasRole(t *testing.T) {
	t.Parallel()

	admin := Identity{UserID: "a", Role: RoleAdmin}
	if !admin.HasRole(RoleHR, RoleAdmin) {
		t.Fatal("admin should match admin role")
	}
	if admin.HasRole(RoleEmployee) {
		t.Fatal("admin should not match employee role")
	}
	if System().UserID != SystemUserID || System().Role != RoleSystem {
		t.Fatalf("unexpected system identity: %+v", System())
	}
}
