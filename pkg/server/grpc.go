package server

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/abdhe/inspirai/pkg/generator"
	"github.com/abdhe/inspirai/pkg/logger"
	"github.com/abdhe/inspirai/pkg/metrics"
)

const (
	// ContentServiceName is the fully qualified gRPC service name.
	ContentServiceName = "inspirai.v1.ContentService"
	// GenerateMethod is the full method name of ContentService.Generate.
	GenerateMethod = "/" + ContentServiceName + "/Generate"

	clientIDKey  = "x-client-id"
	requestIDKey = "x-request-id"
)

// ContentServiceServer is the gRPC surface. Requests are a Struct with the
// fields theme, format, tone, style and wordCount; the reply is the text.
type ContentServiceServer interface {
	Generate(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error)
}

var contentServiceDesc = grpc.ServiceDesc{
	ServiceName: ContentServiceName,
	HandlerType: (*ContentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContentServiceServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContentServiceServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterContentService registers srv on s.
func RegisterContentService(s grpc.ServiceRegistrar, srv ContentServiceServer) {
	s.RegisterService(&contentServiceDesc, srv)
}

// NewGRPCServer builds a gRPC server exposing the content service and
// reflection.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(1 * 1024 * 1024),
		grpc.MaxSendMsgSize(4 * 1024 * 1024),
		grpc.UnaryInterceptor(unaryObserve),
	}, opts...)

	gs := grpc.NewServer(opts...)
	RegisterContentService(gs, &grpcContentService{srv: s})
	reflection.Register(gs)
	return gs
}

type grpcContentService struct {
	srv *Server
}

func (g *grpcContentService) Generate(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	p, err := paramsFromStruct(in)
	if err != nil {
		return nil, status.Error(classify(err).GRPCCode, err.Error())
	}

	text, err := g.srv.generate(ctx, grpcClientKey(ctx), p.WithDefaults())
	if err != nil {
		f := classify(err)
		if f.Code == "busy" {
			metrics.BusyRejectionsTotal.WithLabelValues("grpc").Inc()
		}
		logger.FromContext(ctx).Info("generate call failed", "component", "grpc", "code", f.Code, "error", err)
		return nil, status.Error(f.GRPCCode, err.Error())
	}
	return wrapperspb.String(text), nil
}

// ParamsToStruct encodes p as a ContentService request.
func ParamsToStruct(p generator.Params) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"theme":     p.Theme,
		"format":    string(p.Format),
		"tone":      p.Tone,
		"style":     p.Style,
		"wordCount": p.WordCount,
	})
}

func paramsFromStruct(in *structpb.Struct) (generator.Params, error) {
	fields := in.GetFields()

	var p generator.Params
	var err error
	for name, dst := range map[string]*string{"theme": &p.Theme, "tone": &p.Tone, "style": &p.Style} {
		if *dst, err = stringField(fields, name); err != nil {
			return generator.Params{}, err
		}
	}

	format, err := stringField(fields, "format")
	if err != nil {
		return generator.Params{}, err
	}
	if p.Format, err = generator.ParseFormat(format); err != nil {
		return generator.Params{}, err
	}

	if v, ok := fields["wordCount"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_NullValue:
		case *structpb.Value_NumberValue:
			if k.NumberValue != math.Trunc(k.NumberValue) {
				return generator.Params{}, fmt.Errorf("%w: wordCount must be a whole number", generator.ErrInvalidParams)
			}
			p.WordCount = int(k.NumberValue)
		default:
			return generator.Params{}, fmt.Errorf("%w: wordCount must be a number", generator.ErrInvalidParams)
		}
	}
	return p, nil
}

// stringField reads an optional string field. Absent and null fields are
// empty; any other kind is rejected.
func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", generator.ErrInvalidParams, name)
	}
}

// GenerateRemote calls ContentService.Generate on cc.
func GenerateRemote(ctx context.Context, cc grpc.ClientConnInterface, p generator.Params, opts ...grpc.CallOption) (string, error) {
	in, err := ParamsToStruct(p)
	if err != nil {
		return "", fmt.Errorf("grpc: encode params: %w", err)
	}
	out := new(wrapperspb.StringValue)
	if err := cc.Invoke(ctx, GenerateMethod, in, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func grpcClientKey(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(clientIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return ""
}

// unaryObserve attaches a request ID and logs each call.
func unaryObserve(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	ctx = logger.WithRequestID(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, id))

	start := time.Now()
	resp, err := handler(ctx, req)
	logger.FromContext(ctx).Debug("grpc call",
		"component", "grpc", "method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return resp, err
}
