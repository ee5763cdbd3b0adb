package mapping

import (
	"context"
	"errors"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/eslsoft/finquest/internal/entity"
)

// ToStatusCode classifies a domain error as a gRPC code.
func ToStatusCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrInvalidScore),
		errors.Is(err, entity.ErrInvalidUserID),
		errors.Is(err, entity.ErrInvalidDate),
		errors.Is(err, entity.ErrInvalidAnswer),
		errors.Is(err, entity.ErrInvalidBadgeQuery):
		return codes.InvalidArgument
	case errors.Is(err, entity.ErrStageNotFound),
		errors.Is(err, entity.ErrLessonNotFound),
		errors.Is(err, entity.ErrProgressNotFound):
		return codes.NotFound
	case errors.Is(err, entity.ErrPersistenceUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// ToStatus converts a domain error into a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(ToStatusCode(err), err.Error())
}

// HTTPStatus maps a domain error onto the HTTP status grpc-gateway would
// use for the same gRPC code.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(ToStatusCode(err))
}

// ErrorResponse is the JSON error body, shaped like a grpc-gateway error.
type ErrorResponse struct {
	Code    int32  `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ToErrorResponse builds the JSON body for err. Internal errors hide their
// message from clients.
func ToErrorResponse(err error) ErrorResponse {
	code := ToStatusCode(err)
	msg := err.Error()
	if code == codes.Internal {
		msg = "internal error"
	}
	return ErrorResponse{Code: int32(code), Status: code.String(), Message: msg}
}
