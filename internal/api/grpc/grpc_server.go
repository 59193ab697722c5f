// Package grpc exposes the engine over gRPC. Messages are protobuf
// well-known types so no generated code is required.
package grpc

import (
	"context"
	"strconv"
	"time"

	"github.com/olyamironova/depthbook/internal/api"
	"github.com/olyamironova/depthbook/internal/api/dto"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "depthbook.v1.DepthBook"

const (
	validateSymbolMethod       = "/" + ServiceName + "/ValidateSymbol"
	getFilteredOrderBookMethod = "/" + ServiceName + "/GetFilteredOrderBook"
)

type DepthBookServer interface {
	ValidateSymbol(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// GetFilteredOrderBook expects string fields "symbol" and "depth".
	GetFilteredOrderBook(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type GRPCServer struct {
	Eng api.Service
	log zerolog.Logger
	now func() time.Time
}

func NewGRPCServer(eng api.Service, log zerolog.Logger) *GRPCServer {
	return &GRPCServer{
		Eng: eng,
		log: log.With().Str("component", "grpc").Logger(),
		now: time.Now,
	}
}

// NewServer builds a grpc.Server with the depth book and health services
// registered.
func NewServer(s *GRPCServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.logUnary))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

func (s *GRPCServer) ValidateSymbol(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	symbol, err := s.Eng.ValidateSymbol(req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.String(symbol), nil
}

func (s *GRPCServer) GetFilteredOrderBook(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	symbol, err := s.Eng.ValidateSymbol(fields["symbol"].GetStringValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	depth, err := dto.ParseDepth(depthField(fields["depth"]))
	if err != nil {
		return nil, s.toStatus(err)
	}

	ob, err := s.Eng.GetFilteredOrderBook(ctx, symbol, depth)
	if err != nil {
		return nil, s.toStatus(err)
	}
	resp := dto.ConvertOrderbook(ob, s.now().UTC())
	out, err := structpb.NewStruct(map[string]any{
		"symbol":      resp.Symbol,
		"depth":       resp.Depth.String(),
		"last_price":  resp.LastPrice.String(),
		"asks":        levelsToList(resp.Asks),
		"bids":        levelsToList(resp.Bids),
		"asks_volume": resp.AsksVolume.String(),
		"bids_volume": resp.BidsVolume.String(),
		"timestamp":   resp.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return out, nil
}

// SyncHealth reports the depth book service as SERVING once the engine is
// ready and keeps the status in step until ctx ends.
func (s *GRPCServer) SyncHealth(ctx context.Context, hs *health.Server, every time.Duration) {
	set := func() {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if s.Eng.Ready() {
			st = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(ServiceName, st)
	}
	set()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			set()
		}
	}
}

func (s *GRPCServer) toStatus(err error) error {
	switch api.Classify(err) {
	case api.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case api.KindUnsupported:
		return status.Error(codes.FailedPrecondition, err.Error())
	case api.KindInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		return status.Error(codes.Internal, api.InternalMessage)
	}
}

func (s *GRPCServer) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("latency", time.Since(start)).
		Msg("rpc")
	return resp, err
}

func depthField(v *structpb.Value) string {
	if v == nil {
		return ""
	}
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
		// Shortest exact rendering of the sent double, bounded by ParseDepth.
		return strconv.FormatFloat(v.GetNumberValue(), 'f', -1, 64)
	}
	return v.GetStringValue()
}

func levelsToList(levels []dto.Level) []any {
	out := make([]any, 0, len(levels))
	for _, l := range levels {
		out = append(out, map[string]any{"price": l.Price.String(), "qty": l.Quantity.String()})
	}
	return out
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DepthBookServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateSymbol", Handler: validateSymbolHandler},
		{MethodName: "GetFilteredOrderBook", Handler: getFilteredOrderBookHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "depthbook/v1/depthbook.proto",
}

func validateSymbolHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepthBookServer).ValidateSymbol(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: validateSymbolMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DepthBookServer).ValidateSymbol(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getFilteredOrderBookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepthBookServer).GetFilteredOrderBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getFilteredOrderBookMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DepthBookServer).GetFilteredOrderBook(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a thin caller for the depth book service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ValidateSymbol(ctx context.Context, symbol string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, validateSymbolMethod, wrapperspb.String(symbol), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) GetFilteredOrderBook(ctx context.Context, symbol, depth string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"symbol": symbol, "depth": depth})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getFilteredOrderBookMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
