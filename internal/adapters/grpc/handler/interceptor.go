package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/identity"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// AuthUnaryInterceptor は authorization メタデータの Bearer トークンを検証し、
// 主体がいずれかのロールを持つ場合のみ通します。ヘルスチェックは対象外です。
func AuthUnaryInterceptor(verifier identity.Verifier, roles ...identity.Role) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		token, ok := bearerFromMetadata(ctx)
		if !ok {
			return nil, toStatusError(identity.ErrMissingIdentity)
		}

		id, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, toStatusError(err)
		}
		if len(roles) > 0 && !id.HasRole(roles...) {
			return nil, toStatusError(fmt.Errorf("%w: role %q", identity.ErrForbidden, id.Role))
		}

		return handler(identity.WithIdentity(ctx, id), req)
	}
}

// LoggingUnaryInterceptor は RPC ごとに一行の構造化ログを出力します。
func LoggingUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	log := logger.Named("grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(started)),
		}
		if err != nil {
			log.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("rpc handled", fields...)
		}
		return resp, err
	}
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", false
	}

	const prefix = "bearer "
	v := values[0]
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(prefix):])
	return token, token != ""
}
