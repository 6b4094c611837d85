package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ogurasousui/codex-hrm/internal/adapters/grpc/adminv1"
	"github.com/ogurasousui/codex-hrm/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は gRPC 管理サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
}

// New は管理 API とヘルスチェックを登録した gRPC サーバーを構築します。
// 管理 API は admin ロールのみが呼び出せます。
func New(listenAddr string, runner probation.Runner, verifier identity.Verifier, logger *zap.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append(opts, grpc.ChainUnaryInterceptor(
		handler.LoggingUnaryInterceptor(logger),
		handler.AuthUnaryInterceptor(verifier, identity.RoleAdmin),
	))
	srv := grpc.NewServer(opts...)
	adminv1.RegisterProbationAdminServiceServer(srv, handler.NewProbationAdminHandler(runner))

	hs := health.NewServer()
	hs.SetServingStatus(adminv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     hs,
		logger:     logger.Named("grpc_server"),
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は与えられたリスナーで待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
