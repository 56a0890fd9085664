package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := Validation("column %q not found", "id")
	assert.Equal(t, `VALIDATION_ERROR: column "id" not found`, err.Error())

	wrapped := New(KindDataShape, "sheet unreadable", errors.New("eof"))
	assert.Equal(t, "DATA_SHAPE_ERROR: sheet unreadable (caused by: eof)", wrapped.Error())
	assert.ErrorIs(t, wrapped, wrapped.Cause)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Validation", Validation("x"), KindValidation},
		{"WrappedResourceLimit", fmt.Errorf("export: %w", ResourceLimit("too big")), KindResourceLimit},
		{"Plain", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_KeepsExistingKind(t *testing.T) {
	orig := DataShape("empty sheet")
	err := Wrap(orig, KindInternal, "load failed")
	assert.True(t, Is(err, KindDataShape))

	plain := Wrap(errors.New("io"), KindDataShape, "load failed")
	assert.True(t, Is(plain, KindDataShape))

	assert.Nil(t, Wrap(nil, KindInternal, "noop"))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "explode")
		panic("kaboom")
	}

	err := run()
	require.Error(t, err)
	assert.True(t, Is(err, KindInternal))

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Detail, "goroutine")
	assert.Contains(t, appErr.Error(), "kaboom")
}
