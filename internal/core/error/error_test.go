package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.ErrorIs(t, err, redis.Nil)

	err = WrapRedis(errors.New("connection refused"))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, err.Error(), RedisErrorMessage)
}

func TestExtractionErrorMatchesKind(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := fmt.Errorf("goal analysis: %w", NewExtractionError("GoalIdentification", "{", cause))

	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, cause)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "GoalIdentification", extErr.Schema)
	assert.Equal(t, http.StatusBadGateway, Status(err))
}

func TestInvalid(t *testing.T) {
	err := Invalid("height must be greater than 0, got %v", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: height must be greater than 0, got 0", err.Error())
	assert.Equal(t, http.StatusBadRequest, Status(err))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, Status(nil))
	assert.Equal(t, http.StatusGatewayTimeout, Status(ErrTurnTimeout))
	assert.Equal(t, http.StatusBadGateway, Status(WrapModel(errors.New("503"))))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
}
