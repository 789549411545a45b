package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"clientDirectory/internal/auth"
	"clientDirectory/repository"
)

// DirectoryServiceName is the fully qualified gRPC service name.
const DirectoryServiceName = "crm.v1.Directory"

const statsMethod = "/" + DirectoryServiceName + "/Stats"

// DirectoryServer is the server API of crm.v1.Directory.
type DirectoryServer interface {
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterDirectoryServer registers srv on s.
func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&directoryServiceDesc, srv)
}

var directoryServiceDesc = grpc.ServiceDesc{
	ServiceName: DirectoryServiceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Stats", Handler: directoryStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crm/v1/directory.proto",
}

func directoryStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirectoryServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DirectoryServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DirectoryClient calls crm.v1.Directory.
type DirectoryClient struct {
	cc grpc.ClientConnInterface
}

func NewDirectoryClient(cc grpc.ClientConnInterface) *DirectoryClient {
	return &DirectoryClient{cc: cc}
}

// Stats returns record counts.
func (c *DirectoryClient) Stats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DirectoryService implements DirectoryServer. Every method requires an administrator.
type DirectoryService struct {
	Users     repository.UserRepositoryI
	Companies repository.CompanyRepositoryI
	Clients   repository.ClientRepositoryI
}

// Stats reports how many users, companies and clients are stored.
func (s *DirectoryService) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Users); err != nil {
		return nil, err
	}
	users, err := s.Users.Count(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "count users: %v", err)
	}
	companies, err := s.Companies.Count(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "count companies: %v", err)
	}
	clients, err := s.Clients.Count(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "count clients: %v", err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"users":        users,
		"companies":    companies,
		"clients":      clients,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode stats: %v", err)
	}
	return out, nil
}
