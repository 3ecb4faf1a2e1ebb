package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ModelErrorMessage describes language model transport failures.
	ModelErrorMessage = "language model request failed"
	// ExtractionErrorMessage describes structured output that could not be parsed.
	ExtractionErrorMessage = "language model returned malformed structured output"
)

// Error kinds surfaced by the conversation engine. Tool level kinds never leave
// the engine; they are turned into observations for the model.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrToolNotFound      = errors.New("tool not found")
	ErrExtraction        = errors.New("structured extraction failed")
	ErrMaxRoundsExceeded = errors.New("maximum tool rounds exceeded")
	ErrTurnTimeout       = errors.New("turn timed out")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapModel marks a failed round trip to the language model.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ModelErrorMessage)
}

// Invalid builds an ErrInvalidInput carrying a human readable detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ExtractionError reports model output that could not be coerced to a schema.
type ExtractionError struct {
	Schema string
	Raw    string
	Err    error
}

// NewExtractionError creates an ExtractionError for the named schema.
func NewExtractionError(schema, raw string, err error) *ExtractionError {
	return &ExtractionError{Schema: schema, Raw: raw, Err: err}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: schema %s: %v", ExtractionErrorMessage, e.Schema, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// Status returns the HTTP status a transport layer should use for the error.
func Status(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &appErr):
		return appErr.Status
	case errors.Is(err, ErrTurnTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
