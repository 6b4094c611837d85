// Package adminv1 は hrm.admin.v1 の gRPC サービス定義です。
// メッセージは well-known types のみを使うため、生成コードを持たずに記述しています。
package adminv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                 = "hrm.admin.v1.ProbationAdminService"
	RunProbationCheckFullMethod = "/" + ServiceName + "/RunProbationCheck"
)

// ProbationAdminServiceServer はサーバー側の実装が満たすべき口です。
type ProbationAdminServiceServer interface {
	RunProbationCheck(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
}

// UnimplementedProbationAdminServiceServer は前方互換のための埋め込み用実装です。
type UnimplementedProbationAdminServiceServer struct{}

func (UnimplementedProbationAdminServiceServer) RunProbationCheck(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method RunProbationCheck not implemented")
}

// RegisterProbationAdminServiceServer はサービスを登録します。
func RegisterProbationAdminServiceServer(s grpc.ServiceRegistrar, srv ProbationAdminServiceServer) {
	s.RegisterService(&ProbationAdminService_ServiceDesc, srv)
}

func runProbationCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProbationAdminServiceServer).RunProbationCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RunProbationCheckFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProbationAdminServiceServer).RunProbationCheck(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ProbationAdminService_ServiceDesc は grpc.ServiceDesc です。
var ProbationAdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProbationAdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RunProbationCheck",
			Handler:    runProbationCheckHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hrm/admin/v1/admin.proto",
}

// ProbationAdminServiceClient はクライアント側の口です。
type ProbationAdminServiceClient interface {
	RunProbationCheck(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
}

type probationAdminServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProbationAdminServiceClient はクライアントを生成します。
func NewProbationAdminServiceClient(cc grpc.ClientConnInterface) ProbationAdminServiceClient {
	return &probationAdminServiceClient{cc: cc}
}

func (c *probationAdminServiceClient) RunProbationCheck(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, RunProbationCheckFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
