package evalsvc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/precoding-evaluator/internal/results"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// ErrInvalidRequest marks a request message that could not be decoded or is
// missing a required field.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps evaluation errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.Is(err, results.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidConfiguration),
		errors.Is(err, model.ErrDimensionMismatch):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, model.ErrNumericalInstability):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, model.ErrCollaboratorFailure):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
