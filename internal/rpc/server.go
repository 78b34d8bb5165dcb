package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
)

// #region server
// EngineServer is the service implemented by Server.
type EngineServer interface {
	Step(context.Context, *StepRequest) (*dispute.Play, error)
	CheckLegality(context.Context, *LegalityRequest) (*legality.Report, error)
	CheckInnocence(context.Context, *StrategyRequest) (*InnocenceReply, error)
	CheckPropagation(context.Context, *StrategyRequest) (*propagation.Report, error)
	CheckCorrespondence(context.Context, *CounterRequest) (*correspondence.Report, error)
	CheckType(context.Context, *TypeRequest) (*typing.Result, error)
	Analyze(context.Context, *CounterRequest) (*engine.Analysis, error)
}

// Server exposes an engine over gRPC.
type Server struct {
	eng *engine.Engine
	log *zap.Logger
}

// NewServer wraps eng. A nil logger discards.
func NewServer(eng *engine.Engine, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{eng: eng, log: log}
}

// Register adds the service to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodStep, Handler: unary(methodStep, EngineServer.Step)},
		{MethodName: methodLegality, Handler: unary(methodLegality, EngineServer.CheckLegality)},
		{MethodName: methodInnocence, Handler: unary(methodInnocence, EngineServer.CheckInnocence)},
		{MethodName: methodPropagation, Handler: unary(methodPropagation, EngineServer.CheckPropagation)},
		{MethodName: methodCorrespondence, Handler: unary(methodCorrespondence, EngineServer.CheckCorrespondence)},
		{MethodName: methodType, Handler: unary(methodType, EngineServer.CheckType)},
		{MethodName: methodAnalyze, Handler: unary(methodAnalyze, EngineServer.Analyze)},
	},
	Metadata: "ludics/v1/engine",
}

// #endregion server

// #region handlers
func (s *Server) Step(ctx context.Context, req *StepRequest) (*dispute.Play, error) {
	phase := design.Positive
	if req.StartPhase != "" {
		p, err := design.ParsePolarity(req.StartPhase)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		phase = p
	}
	return s.eng.Step(ctx, req.Positive.ToDesign(), req.Negative.ToDesign(), phase, req.MaxPairs)
}

func (s *Server) CheckLegality(ctx context.Context, req *LegalityRequest) (*legality.Report, error) {
	rep, err := s.eng.CheckLegality(ctx, req.Play, req.Force)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *Server) CheckInnocence(ctx context.Context, req *StrategyRequest) (*InnocenceReply, error) {
	d := req.Design.ToDesign()
	st, err := s.eng.ExtractStrategy(ctx, d, d.Polarity, req.Disputes)
	if err != nil {
		return nil, err
	}
	rep, err := s.eng.CheckInnocence(ctx, st, req.Force)
	if err != nil {
		return nil, err
	}
	return &InnocenceReply{StrategyID: st.ID, Chronicles: len(st.Chronicles), Report: rep}, nil
}

func (s *Server) CheckPropagation(ctx context.Context, req *StrategyRequest) (*propagation.Report, error) {
	d := req.Design.ToDesign()
	st, err := s.eng.ExtractStrategy(ctx, d, d.Polarity, req.Disputes)
	if err != nil {
		return nil, err
	}
	rep, err := s.eng.CheckPropagation(ctx, st, req.Mode, req.Analysis, req.Force)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// CheckCorrespondence steps the design against each counter-design,
// extracts its strategy from those plays and verifies the two agree.
func (s *Server) CheckCorrespondence(ctx context.Context, req *CounterRequest) (*correspondence.Report, error) {
	d, counters := req.Design.ToDesign(), designs(req.Counters)
	plays, err := s.eng.StepAll(ctx, d, counters)
	if err != nil {
		return nil, err
	}
	st, err := s.eng.ExtractStrategy(ctx, d, d.Polarity, plays)
	if err != nil {
		return nil, err
	}
	rep, err := s.eng.CheckCorrespondence(ctx, d, st, counters, req.Force)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *Server) CheckType(ctx context.Context, req *TypeRequest) (*typing.Result, error) {
	t, err := typing.Parse(req.Type)
	if err != nil {
		return nil, err
	}
	res, err := s.eng.CheckType(ctx, req.Design.ToDesign(), t, typing.Method(req.Method), req.Force)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Server) Analyze(ctx context.Context, req *CounterRequest) (*engine.Analysis, error) {
	s.log.Debug("analyze requested", zap.String("design", req.Design.ID), zap.Int("counters", len(req.Counters)))
	return s.eng.Analyze(ctx, req.Design.ToDesign(), designs(req.Counters), req.Force)
}

func designs(msgs []DesignMsg) []*design.Design {
	out := make([]*design.Design, len(msgs))
	for i, m := range msgs {
		out[i] = m.ToDesign()
	}
	return out
}

// #endregion handlers

// #region codec
// unary adapts a typed handler to a grpc.MethodDesc handler exchanging
// structpb.Struct messages.
func unary[Req, Resp any](name string, call func(EngineServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, msg any) (any, error) {
			req := new(Req)
			if err := decode(msg.(*structpb.Struct), req); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decode %s request: %v", name, err)
			}
			resp, err := call(srv.(EngineServer), ctx, req)
			if err != nil {
				return nil, toStatus(err)
			}
			out, err := encode(resp)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode %s reply: %v", name, err)
			}
			return out, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
		return interceptor(ctx, in, info, handler)
	}
}

// encode converts v to a Struct through its JSON form.
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// decode fills v from a Struct through its JSON form.
func decode(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// toStatus maps engine errors onto gRPC codes.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, typing.ErrSyntax),
		errors.Is(err, typing.ErrNilType),
		errors.Is(err, typing.ErrUnknownMethod),
		errors.Is(err, correspondence.ErrPolarity),
		errors.Is(err, correspondence.ErrNoCounterDesigns),
		errors.Is(err, correspondence.ErrStrategyMismatch),
		errors.Is(err, strategy.ErrForeignDispute),
		errors.Is(err, strategy.ErrUnknownAct),
		errors.Is(err, design.ErrInvalidPolarity):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion codec
