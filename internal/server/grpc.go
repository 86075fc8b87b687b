package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/utils"
)

const (
	BudgetServiceName = "budget.v1.BudgetService"
	requestIDHeader   = "x-request-id"
)

// BudgetServiceServer is served under budget.v1.BudgetService. Payloads are well-known
// types so no generated code is needed.
type BudgetServiceServer interface {
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveProject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProject(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListProjects(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	DeleteProject(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

var BudgetServiceDesc = grpc.ServiceDesc{
	ServiceName: BudgetServiceName,
	HandlerType: (*BudgetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: unary("ExtractText", func() *structpb.Struct { return new(structpb.Struct) },
			func(s BudgetServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) { return s.ExtractText(ctx, in) })},
		{MethodName: "SaveProject", Handler: unary("SaveProject", func() *structpb.Struct { return new(structpb.Struct) },
			func(s BudgetServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) { return s.SaveProject(ctx, in) })},
		{MethodName: "GetProject", Handler: unary("GetProject", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
			func(s BudgetServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) { return s.GetProject(ctx, in) })},
		{MethodName: "ListProjects", Handler: unary("ListProjects", func() *emptypb.Empty { return new(emptypb.Empty) },
			func(s BudgetServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) { return s.ListProjects(ctx, in) })},
		{MethodName: "DeleteProject", Handler: unary("DeleteProject", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
			func(s BudgetServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (proto.Message, error) { return s.DeleteProject(ctx, in) })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "budget/v1/budget.proto",
}

func unary[T proto.Message](method string, newReq func() T, call func(BudgetServiceServer, context.Context, T) (proto.Message, error)) grpc.MethodHandler {
	fullMethod := "/" + BudgetServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BudgetServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BudgetServiceServer), ctx, req.(T))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BudgetService adapts the budget API to gRPC.
type BudgetService struct {
	svc    BudgetAPI
	logger *slog.Logger
}

func NewBudgetService(svc BudgetAPI, logger *slog.Logger) *BudgetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{svc: svc, logger: logger}
}

// NewGRPCServer registers the budget service, gRPC health and reflection.
func NewGRPCServer(svc BudgetAPI, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(requestLogging(logger)))
	grpcServer.RegisterService(&BudgetServiceDesc, NewBudgetService(svc, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(BudgetServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)
	return grpcServer
}

func (s *BudgetService) ExtractText(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	text := fields["text"].GetStringValue()
	backend := strings.TrimSpace(fields["backend"].GetStringValue())

	res, err := s.svc.ExtractText(ctx, text, backend)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	if res.ValidationErrors == nil {
		res.ValidationErrors = []string{}
	}
	out, err := utils.ToPBExtraction(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// SaveProject answers InvalidArgument with the violations attached as a ListValue detail.
func (s *BudgetService) SaveProject(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rec, err := utils.RecordFromPB(in)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("record: %v", err)
	}

	id, violations, err := s.svc.Save(ctx, rec)
	if len(violations) > 0 {
		return nil, violationStatus(violations)
	}
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"message":    budget.SavedMessage,
		"project_id": id,
	})
}

func (s *BudgetService) GetProject(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if in.GetValue() <= 0 {
		return nil, common.InvalidArgumentError("project id must be a positive integer")
	}
	p, err := s.svc.GetProject(ctx, in.GetValue())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out, err := utils.ToPBProject(p)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode project: %v", err)
	}
	return out, nil
}

func (s *BudgetService) ListProjects(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ps, err := s.svc.ListProjects(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	dtos := make([]projectDTO, 0, len(ps))
	for _, p := range ps {
		dtos = append(dtos, projectDTO{Project: p, Total: p.Total()})
	}
	out, err := utils.ToPBStruct(struct {
		Projects []projectDTO `json:"projects"`
	}{dtos})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode projects: %v", err)
	}
	return out, nil
}

func (s *BudgetService) DeleteProject(ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if in.GetValue() <= 0 {
		return nil, common.InvalidArgumentError("project id must be a positive integer")
	}
	if err := s.svc.DeleteProject(ctx, in.GetValue()); err != nil {
		return nil, common.ToStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func violationStatus(violations []string) error {
	vals := make([]any, len(violations))
	for i, v := range violations {
		vals[i] = v
	}
	st := status.New(codes.InvalidArgument, common.NewValidationError(violations).Error())
	list, err := structpb.NewList(vals)
	if err != nil {
		return st.Err()
	}
	if withDetails, err := st.WithDetails(list); err == nil {
		return withDetails.Err()
	}
	return st.Err()
}

// ViolationsFromStatus reads the violations attached by SaveProject.
func ViolationsFromStatus(err error) []string {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	var out []string
	for _, d := range st.Details() {
		list, ok := d.(*structpb.ListValue)
		if !ok {
			continue
		}
		for _, v := range list.GetValues() {
			out = append(out, v.GetStringValue())
		}
	}
	return out
}

func requestLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		var rid string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDHeader); len(v) > 0 {
				rid = v[0]
			}
		}
		if rid == "" {
			rid = common.RequestIDFromContext(ctx)
		}
		ctx = common.WithRequestID(ctx, rid)

		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"req_id", rid,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// BudgetClient calls budget.v1.BudgetService.
type BudgetClient struct {
	cc grpc.ClientConnInterface
}

func NewBudgetClient(cc grpc.ClientConnInterface) *BudgetClient {
	return &BudgetClient{cc: cc}
}

func (c *BudgetClient) invoke(ctx context.Context, method string, in, out proto.Message, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+BudgetServiceName+"/"+method, in, out, opts...)
}

func (c *BudgetClient) ExtractText(ctx context.Context, text, backend string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"text": text, "backend": backend})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "ExtractText", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BudgetClient) SaveProject(ctx context.Context, rec *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "SaveProject", rec, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BudgetClient) GetProject(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetProject", wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BudgetClient) ListProjects(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "ListProjects", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BudgetClient) DeleteProject(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "DeleteProject", wrapperspb.Int64(id), &emptypb.Empty{}, opts...)
}
