package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/transport"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "krishisahay.v1.Assistant"

const (
	askMethod     = "/" + ServiceName + "/Ask"
	historyMethod = "/" + ServiceName + "/History"
)

// HistoryRequest is the (empty) request of Assistant/History.
type HistoryRequest struct{}

// HistoryResponse lists exchanges most recent first.
type HistoryResponse struct {
	Exchanges []message.Exchange `json:"exchanges"`
}

// AssistantServer is the server API for the Assistant service.
type AssistantServer interface {
	Ask(context.Context, *message.AskRequest) (*message.AskResult, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// assistant adapts a transport.Service to AssistantServer.
type assistant struct {
	svc transport.Service
}

func (a *assistant) Ask(ctx context.Context, req *message.AskRequest) (*message.AskResult, error) {
	res, err := a.svc.Ask(ctx, req.Query())
	switch {
	case pipeline.IsBadQuery(err):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil && res != nil:
		// The answer exists; the failed stage is reported in res.Error.
		return res, nil
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}
	return res, nil
}

func (a *assistant) History(ctx context.Context, _ *HistoryRequest) (*HistoryResponse, error) {
	list, err := a.svc.History(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if list == nil {
		list = []message.Exchange{}
	}
	return &HistoryResponse{Exchanges: list}, nil
}

func askHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.AskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Ask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: askMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Ask(ctx, req.(*message.AskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: historyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).History(ctx, req.(*HistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var assistantServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ask", Handler: askHandler},
		{MethodName: "History", Handler: historyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "krishisahay/v1/assistant",
}

// Client calls the Assistant service using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Ask runs one exchange on the server.
func (c *Client) Ask(ctx context.Context, req *message.AskRequest, opts ...grpc.CallOption) (*message.AskResult, error) {
	out := new(message.AskResult)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, askMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches all stored exchanges.
func (c *Client) History(ctx context.Context, opts ...grpc.CallOption) ([]message.Exchange, error) {
	out := new(HistoryResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, historyMethod, &HistoryRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out.Exchanges, nil
}
