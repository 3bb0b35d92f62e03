// Package evalsvc exposes scenario evaluation over gRPC. Messages travel as
// google.protobuf.Struct values whose fields mirror the JSON form of the
// request and response types in this package.
package evalsvc

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/internal/results"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "precoding.v1.EvaluationService"

// Full method names.
const (
	EvaluateMethod    = "/" + ServiceName + "/Evaluate"
	GetResultMethod   = "/" + ServiceName + "/GetResult"
	ListResultsMethod = "/" + ServiceName + "/ListResults"
)

// EvaluationServer is the server API for the evaluation service.
type EvaluationServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListResults(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the evaluation service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(EvaluateMethod, EvaluationServer.Evaluate)},
		{MethodName: "GetResult", Handler: unaryHandler(GetResultMethod, EvaluationServer.GetResult)},
		{MethodName: "ListResults", Handler: unaryHandler(ListResultsMethod, EvaluationServer.ListResults)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "precoding/v1/evaluation.proto",
}

// RegisterEvaluationServer registers srv on s.
func RegisterEvaluationServer(s grpc.ServiceRegistrar, srv EvaluationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(EvaluationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvaluationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EvaluationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Service implements EvaluationServer on top of a core.Evaluator and a
// result store.
type Service struct {
	evaluator      *core.Evaluator
	store          *results.Store
	defaultChannel channel.Spec
	log            logging.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithDefaultChannel sets the channel used when a request names none.
func WithDefaultChannel(spec channel.Spec) ServiceOption {
	return func(s *Service) { s.defaultChannel = spec }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService wires the evaluation service. The evaluator's own channel model
// is replaced per request.
func NewService(ev *core.Evaluator, store *results.Store, opts ...ServiceOption) *Service {
	s := &Service{
		evaluator:      ev,
		store:          store,
		defaultChannel: channel.Spec{Model: channel.ModelRayleigh},
		log:            logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ EvaluationServer = (*Service)(nil)

// Evaluate runs the requested scenario, stores the result, and returns it.
func (s *Service) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	var req EvaluateRequest
	if err := decode(in, &req, true); err != nil {
		return nil, ToStatusError(err)
	}

	ctx, span := StartChildSpan(ctx, "EvaluationService.Evaluate", "",
		attribute.String("method", req.Scenario.Method),
	)
	defer span.End()

	rec, err := s.evaluate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(ctx, "evaluation rejected",
			logging.String("method", req.Scenario.Method),
			logging.String("kind", core.ErrorKind(err)),
			logging.Err(err),
		)
		return nil, ToStatusError(err)
	}
	span.SetAttributes(attribute.String("result_id", rec.ID))
	log.Info(ctx, "evaluation stored",
		logging.String("result_id", rec.ID),
		logging.String("method", string(rec.Result.Config().Method())),
		logging.Float64("peak_bits_per_hz", rec.Result.Curve().Peak()),
	)

	msg, err := resultMessage(rec)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(msg)
}

func (s *Service) evaluate(ctx context.Context, req EvaluateRequest) (results.Record, error) {
	cfg, err := req.Scenario.Build()
	if err != nil {
		return results.Record{}, err
	}
	sweep, err := req.Sweep.Build()
	if err != nil {
		return results.Record{}, err
	}
	spec := s.defaultChannel
	if req.Channel != nil {
		spec = *req.Channel
	}
	generator, err := channel.FromSpec(spec)
	if err != nil {
		return results.Record{}, err
	}
	res, err := s.evaluator.WithChannel(generator).Run(ctx, cfg, sweep)
	if err != nil {
		return results.Record{}, err
	}
	return s.store.Put(res)
}

// GetResult returns a stored result by ID.
func (s *Service) GetResult(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetResultRequest
	if err := decode(in, &req, true); err != nil {
		return nil, ToStatusError(err)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}

	_, span := StartChildSpan(ctx, "EvaluationService.GetResult", id)
	defer span.End()

	rec, err := s.store.Get(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	msg, err := resultMessage(rec)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(msg)
}

// ListResults summarises every stored result, oldest first.
func (s *Service) ListResults(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListResultsRequest
	if err := decode(in, &req, true); err != nil {
		return nil, ToStatusError(err)
	}

	records := s.store.List()
	resp := ListResultsResponse{Results: make([]ResultSummary, 0, len(records))}
	for _, rec := range records {
		cfg := rec.Result.Config()
		resp.Results = append(resp.Results, ResultSummary{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			Name:      cfg.Name(),
			Method:    string(cfg.Method()),
			Peak:      rec.Result.Curve().Peak(),
		})
	}
	return encode(resp)
}

// resultMessage builds the wire view of a record. Per-user capacities are
// reported at the highest SNR of the stored sweep.
func resultMessage(rec results.Record) (Result, error) {
	res := rec.Result
	cfg := res.Config()
	gains, err := core.ComputeLinkGains(res.Channel(), res.Weights())
	if err != nil {
		return Result{}, err
	}
	sweep := res.Sweep()
	top := sweep.At(sweep.Len() - 1)
	curve := res.Curve()

	return Result{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Name:      cfg.Name(),
		Method:    string(cfg.Method()),
		Users:     cfg.Users(),
		Antennas:  cfg.Antennas(),
		Weights:   matrixFromWeights(res.Weights()),
		Gains: Gains{
			Signal:        gains.Signal,
			Interference:  gains.Interference,
			CapacitySNRdB: top,
			Capacities:    gains.UserCapacities(top),
		},
		Curve: Curve{
			Label:     curve.Label(),
			SNRdB:     curve.SNRdB(),
			BitsPerHz: curve.SpectralEfficiency(),
		},
		Peak: curve.Peak(),
	}, nil
}
