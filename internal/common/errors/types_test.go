package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := RemoteUnavailableError("get", errors.New("connection refused"))
	assert.Contains(t, err.Error(), "remote_unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := RemoteUnavailableError("set", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestAppErrorWithContext(t *testing.T) {
	err := MalformedValueError("abc123", errors.New("invalid character")).
		WithContext("namespace", "links")
	assert.Contains(t, err.Error(), "namespace=links")
	assert.Contains(t, err.Error(), "abc123")
}

func TestAppErrorWithCode(t *testing.T) {
	err := ConfigError("maxSize must be positive").WithCode("CFG001")
	assert.Contains(t, err.Error(), "code=CFG001")
}

func TestIsType(t *testing.T) {
	err := SourceLookupError("abc123", errors.New("no rows"))
	assert.True(t, IsType(err, ErrTypeSourceLookup))
	assert.False(t, IsType(err, ErrTypeRemoteUnavailable))
	assert.False(t, IsType(nil, ErrTypeSourceLookup))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeSourceLookup))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrTypeNotFound, GetType(NotFoundError("link")))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))
}
