package task

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{
			name: "execution error",
			err:  &ExecutionError{Kind: domain.ErrorKindSourceUnavailable, Err: errors.New("gone")},
			want: domain.ErrorKindSourceUnavailable,
		},
		{
			name: "wrapped execution error",
			err: fmt.Errorf("outer: %w",
				&ExecutionError{Kind: domain.ErrorKindMalformedRecord, Err: errors.New("bad")}),
			want: domain.ErrorKindMalformedRecord,
		},
		{
			name: "context canceled",
			err:  fmt.Errorf("reading: %w", context.Canceled),
			want: domain.ErrorKindInterrupted,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: domain.ErrorKindInterrupted,
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			want: domain.ErrorKindInternal,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	err := &ExecutionError{Kind: domain.ErrorKindStoreError, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store_error: cause", err.Error())
}
