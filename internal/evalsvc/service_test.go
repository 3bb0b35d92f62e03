package evalsvc

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/internal/observability"
	"github.com/signalsfoundry/precoding-evaluator/internal/results"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

type harness struct {
	client    *Client
	conn      *grpc.ClientConn
	store     *results.Store
	collector *observability.RPCCollector
}

func newHarness(t *testing.T, storeOpts ...results.Option) *harness {
	t.Helper()

	collector, err := observability.NewRPCCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}
	store := results.NewStore(append([]results.Option{results.WithMetrics(collector)}, storeOpts...)...)
	svc := NewService(core.NewEvaluator(nil), store)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RequestIDUnaryServerInterceptor(logging.Noop()),
		TracingUnaryServerInterceptor(),
		collector.UnaryServerInterceptor(),
	))
	RegisterEvaluationServer(server, svc)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(RequestIDUnaryClientInterceptor()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: NewClient(conn), conn: conn, store: store, collector: collector}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func explicitRequest(method string, real [][]float64) EvaluateRequest {
	return EvaluateRequest{
		Scenario: model.ScenarioSpec{
			Name:               "lab",
			HorizontalElements: len(real[0]),
			VerticalElements:   1,
			Users:              len(real),
			Method:             method,
		},
		Channel: &channel.Spec{Model: channel.ModelExplicit, Matrix: &channel.MatrixSpec{Real: real}},
		Sweep:   model.SweepSpec{ValuesDB: []float64{-10, 0}},
	}
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := status.Code(err); got != want {
		t.Fatalf("status code = %s, want %s (err=%v)", got, want, err)
	}
}

func TestEvaluateOrthogonalChannel(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	res, err := h.client.Evaluate(ctx, explicitRequest("MRT", [][]float64{{1, 0}, {0, 1}}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.ID == "" {
		t.Fatalf("expected a result id")
	}
	if res.Method != "MRT" || res.Name != "lab" || res.Users != 2 || res.Antennas != 2 {
		t.Fatalf("unexpected header: %+v", res)
	}
	if got := res.Curve.BitsPerHz; len(got) != 2 || math.Abs(got[1]-2) > 1e-12 {
		t.Fatalf("curve = %v, want 2 bits/s/Hz at 0 dB", got)
	}
	if math.Abs(res.Peak-2) > 1e-12 {
		t.Fatalf("peak = %v, want 2", res.Peak)
	}
	for u := 0; u < 2; u++ {
		if math.Abs(res.Gains.Signal[u]-1) > 1e-12 || res.Gains.Interference[u] > 1e-12 {
			t.Fatalf("user %d gains: signal=%v interference=%v", u, res.Gains.Signal[u], res.Gains.Interference[u])
		}
		if math.Abs(res.Gains.Capacities[u]-1) > 1e-12 {
			t.Fatalf("user %d capacity = %v, want 1", u, res.Gains.Capacities[u])
		}
	}
	if res.Gains.CapacitySNRdB != 0 {
		t.Fatalf("capacity SNR = %v, want the top of the sweep", res.Gains.CapacitySNRdB)
	}
	w := res.Weights.Complex()
	if len(w) != 2 || w[0][0] != 1 || w[1][1] != 1 || w[0][1] != 0 {
		t.Fatalf("weights = %v, want identity", w)
	}

	got, err := h.client.GetResult(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.ID != res.ID || !got.CreatedAt.Equal(res.CreatedAt) || got.Peak != res.Peak {
		t.Fatalf("GetResult returned %+v, want %+v", got, res)
	}

	list, err := h.client.ListResults(ctx)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(list) != 1 || list[0].ID != res.ID || list[0].Method != "MRT" {
		t.Fatalf("ListResults = %+v", list)
	}
	if v := testutil.ToFloat64(h.collector.StoredResults); v != 1 {
		t.Fatalf("stored results gauge = %v, want 1", v)
	}
}

func TestEvaluateDefaultChannelAndSweep(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	res, err := h.client.Evaluate(ctx, EvaluateRequest{Scenario: model.ScenarioSpec{
		HorizontalElements: 4,
		VerticalElements:   2,
		Users:              3,
		Method:             "zf",
	}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.Curve.SNRdB) != model.DefaultSNRSweep().Len() {
		t.Fatalf("curve has %d points, want the default sweep", len(res.Curve.SNRdB))
	}
	if res.Method != "ZF" {
		t.Fatalf("method = %q, want ZF", res.Method)
	}
	for u, v := range res.Gains.Interference {
		if v > 1e-9 {
			t.Fatalf("zero-forcing leaked %v into user %d", v, u)
		}
	}
}

func TestEvaluateErrorCodes(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	cases := []struct {
		name string
		req  EvaluateRequest
		want codes.Code
	}{
		{"unsupported method", explicitRequest("XYZ", [][]float64{{1, 0}, {0, 1}}), codes.InvalidArgument},
		{"singular zero forcing", explicitRequest("ZF", [][]float64{{1, 0}, {1, 0}}), codes.FailedPrecondition},
		{"bad sweep", func() EvaluateRequest {
			r := explicitRequest("MRT", [][]float64{{1, 0}, {0, 1}})
			r.Sweep = model.SweepSpec{ValuesDB: []float64{5, 0}}
			return r
		}(), codes.InvalidArgument},
		{"unknown channel model", func() EvaluateRequest {
			r := explicitRequest("MRT", [][]float64{{1, 0}, {0, 1}})
			r.Channel = &channel.Spec{Model: "ray-traced"}
			return r
		}(), codes.InvalidArgument},
		{"channel shaped for other users", func() EvaluateRequest {
			r := explicitRequest("MRT", [][]float64{{1, 0}, {0, 1}})
			r.Scenario.Users = 1
			return r
		}(), codes.Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.client.Evaluate(ctx, tc.req)
			requireCode(t, err, tc.want)
		})
	}
	if n := h.store.Len(); n != 0 {
		t.Fatalf("failed evaluations stored %d results", n)
	}

	count := testutil.ToFloat64(h.collector.RPCRequests.WithLabelValues("EvaluationService", "Evaluate", codes.InvalidArgument.String()))
	if count != 3 {
		t.Fatalf("InvalidArgument evaluate count = %v, want 3", count)
	}
}

func TestEvaluateRejectsUnknownFields(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	in, err := structpb.NewStruct(map[string]any{
		"scenario":   map[string]any{"nUsers": 1, "beamformerMethod": "MRT"},
		"beamformer": "MRT",
	})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, EvaluateMethod, in, out)
	requireCode(t, err, codes.InvalidArgument)
}

func TestGetResultErrors(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	_, err := h.client.GetResult(ctx, "")
	requireCode(t, err, codes.InvalidArgument)

	_, err = h.client.GetResult(ctx, "does-not-exist")
	requireCode(t, err, codes.NotFound)
}

func TestListResultsHonoursEviction(t *testing.T) {
	h := newHarness(t, results.WithCapacity(2))
	ctx := testContext(t)

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := h.client.Evaluate(ctx, explicitRequest("MRT", [][]float64{{1, 0}, {0, 1}}))
		if err != nil {
			t.Fatalf("Evaluate %d: %v", i, err)
		}
		ids = append(ids, res.ID)
	}

	list, err := h.client.ListResults(ctx)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[1] || list[1].ID != ids[2] {
		t.Fatalf("ListResults = %+v, want the two newest of %v", list, ids)
	}
	_, err = h.client.GetResult(ctx, ids[0])
	requireCode(t, err, codes.NotFound)
}

func TestEvaluateReportsCancellation(t *testing.T) {
	svc := NewService(core.NewEvaluator(nil), results.NewStore())
	in, err := encode(EvaluateRequest{Scenario: model.ScenarioSpec{
		HorizontalElements: 2,
		VerticalElements:   2,
		Users:              2,
		Method:             "ZF",
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	cases := []struct {
		name string
		ctx  context.Context
		want codes.Code
	}{
		{"canceled", canceled, codes.Canceled},
		{"deadline", expired, codes.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Evaluate(tc.ctx, in)
			requireCode(t, err, tc.want)
		})
	}
}
