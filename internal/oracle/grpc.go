package oracle

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region service
const (
	serviceName    = "oracle.v1.Oracle"
	completeMethod = "/" + serviceName + "/Complete"
)

// #endregion service

// #region client-struct
// GRPCClient forwards queries to a remote oracle served by RegisterServer.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// NewGRPCClient connects to a remote oracle. Without options the
// connection uses insecure transport credentials.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn}, nil
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// #endregion close

// #region query
// Query issues one unary Complete RPC bounded by req.Timeout.
func (c *GRPCClient) Query(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	in, err := structpb.NewStruct(map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
	})
	if err != nil {
		return "", &Failure{Model: req.Model, Reason: "encode request", Err: err}
	}

	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, completeMethod, in, out); err != nil {
		reason := fmt.Sprintf("complete rpc: %s", status.Code(err))
		if status.Code(err) == codes.DeadlineExceeded {
			reason = fmt.Sprintf("timed out after %s", req.Timeout)
		} else if msg := status.Convert(err).Message(); msg != "" {
			reason += ": " + msg
		}
		return "", &Failure{Model: req.Model, Reason: reason, Err: err}
	}
	return out.GetValue(), nil
}

// #endregion query
