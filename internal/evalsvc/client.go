package evalsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed wrapper over a connection to EvaluationService.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn. Dial with RequestIDUnaryClientInterceptor to
// propagate request IDs.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Evaluate runs a scenario on the server.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest, opts ...grpc.CallOption) (Result, error) {
	var out Result
	err := c.invoke(ctx, EvaluateMethod, req, &out, opts...)
	return out, err
}

// GetResult fetches a stored result.
func (c *Client) GetResult(ctx context.Context, id string, opts ...grpc.CallOption) (Result, error) {
	var out Result
	err := c.invoke(ctx, GetResultMethod, GetResultRequest{ID: id}, &out, opts...)
	return out, err
}

// ListResults lists stored results.
func (c *Client) ListResults(ctx context.Context, opts ...grpc.CallOption) ([]ResultSummary, error) {
	var out ListResultsResponse
	if err := c.invoke(ctx, ListResultsMethod, ListResultsRequest{}, &out, opts...); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}
	return decode(out, resp, false)
}
