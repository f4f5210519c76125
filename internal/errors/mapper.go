// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Domain sentinels. Repositories and services wrap these with fmt.Errorf("...: %w").
var (
	ErrNotFound          = errors.New("not found")
	ErrNotParticipant    = errors.New("user is not a participant of this match")
	ErrSelfAction        = errors.New("cannot act on yourself")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrRateLimited       = errors.New("too many actions, slow down")
	ErrAlreadySent       = errors.New("queue item already sent")
	ErrInFlight          = errors.New("queue item is being posted")
)

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, ErrSelfAction), errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrInsufficientCoins):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrAlreadySent), errors.Is(err, ErrInFlight):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}
