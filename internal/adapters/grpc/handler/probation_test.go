package handler

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/ogurasousui/codex-hrm/internal/adapters/grpc/adminv1"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

type stubRunner struct {
	result *probation.Result
	err    error
	actor  identity.Identity
}

func (s *stubRunner) Run(ctx context.Context) (*probation.Result, error) {
	s.actor, _ = identity.FromContext(ctx)
	return s.result, s.err
}

type stubVerifier map[string]identity.Identity

func (s stubVerifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	id, ok := s[token]
	if !ok {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return id, nil
}

func newAdminClient(t *testing.T, runner probation.Runner) adminv1.ProbationAdminServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		AuthUnaryInterceptor(stubVerifier{
			"admin-token": {UserID: "admin-1", Role: identity.RoleAdmin},
			"hr-token":    {UserID: "hr-1", Role: identity.RoleHR},
		}, identity.RoleAdmin),
	))
	adminv1.RegisterProbationAdminServiceServer(srv, NewProbationAdminHandler(runner))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return adminv1.NewProbationAdminServiceClient(conn)
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestProbationAdminHandler_RunProbationCheck_Success(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: &probation.Result{Promoted: 3}}
	client := newAdminClient(t, runner)

	resp, err := client.RunProbationCheck(withToken("admin-token"), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("RunProbationCheck returned error: %v", err)
	}
	if resp.GetValue() != 3 {
		t.Fatalf("expected 3, got %d", resp.GetValue())
	}
	if runner.actor.UserID != "admin-1" {
		t.Fatalf("expected identity in context, got %+v", runner.actor)
	}
}

func TestProbationAdminHandler_RunProbationCheck_Auth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ctx  context.Context
		want codes.Code
	}{
		{name: "no metadata", ctx: context.Background(), want: codes.Unauthenticated},
		{name: "invalid token", ctx: withToken("forged"), want: codes.Unauthenticated},
		{name: "non admin", ctx: withToken("hr-token"), want: codes.PermissionDenied},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			runner := &stubRunner{result: &probation.Result{}}
			client := newAdminClient(t, runner)

			_, err := client.RunProbationCheck(tc.ctx, &emptypb.Empty{})
			if status.Code(err) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestProbationAdminHandler_RunProbationCheck_Failures(t *testing.T) {
	t.Parallel()

	t.Run("partial", func(t *testing.T) {
		t.Parallel()

		client := newAdminClient(t, &stubRunner{
			result: &probation.Result{Promoted: 1, Failed: 2},
			err:    probation.ErrPartialRun,
		})
		_, err := client.RunProbationCheck(withToken("admin-token"), &emptypb.Empty{})
		st, _ := status.FromError(err)
		if st.Code() != codes.Internal || !strings.Contains(st.Message(), "promoted=1 failed=2") {
			t.Fatalf("unexpected status: %v", err)
		}
	})

	t.Run("store unavailable", func(t *testing.T) {
		t.Parallel()

		client := newAdminClient(t, &stubRunner{err: errors.New("connection refused")})
		_, err := client.RunProbationCheck(withToken("admin-token"), &emptypb.Empty{})
		st, _ := status.FromError(err)
		if st.Code() != codes.Internal || strings.Contains(st.Message(), "connection refused") {
			t.Fatalf("unexpected status: %v", err)
		}
	})
}

func TestToStatusError(t *testing.T) {
	t.Parallel()

	cases := map[error]codes.Code{
		identity.ErrMissingIdentity: codes.Unauthenticated,
		identity.ErrForbidden:       codes.PermissionDenied,
		context.DeadlineExceeded:    codes.DeadlineExceeded,
		errors.New("boom"):          codes.Internal,
	}
	for err, want := range cases {
		if got := status.Code(toStatusError(err)); got != want {
			t.Errorf("%v: expected %s, got %s", err, want, got)
		}
	}
	if toStatusError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
