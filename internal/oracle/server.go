package oracle

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region server-iface
// Server is the handler side of the oracle.v1.Oracle service.
type Server interface {
	Complete(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Complete", Handler: completeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "oracle/v1/oracle.proto",
}

func completeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Complete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: completeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Complete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion server-iface

// #region register
// RegisterServer exposes backend as oracle.v1.Oracle on s.
// timeout bounds each backend call independently of the caller's deadline.
func RegisterServer(s *grpc.Server, backend Client, timeout time.Duration, logger zerolog.Logger) {
	s.RegisterService(&serviceDesc, &server{
		backend: backend,
		timeout: timeout,
		logger:  logger.With().Str("component", "oracle-server").Logger(),
	})
}

type server struct {
	backend Client
	timeout time.Duration
	logger  zerolog.Logger
}

func (s *server) Complete(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := in.GetFields()
	model := fields["model"].GetStringValue()
	prompt := fields["prompt"].GetStringValue()
	if model == "" {
		return nil, status.Error(codes.InvalidArgument, "model is required")
	}

	text, err := s.backend.Query(ctx, Request{Model: model, Prompt: prompt, Timeout: s.timeout})
	if err != nil {
		s.logger.Warn().Err(err).Str("model", model).Msg("backend query failed")
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return wrapperspb.String(text), nil
}

// #endregion register
