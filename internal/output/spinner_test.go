package output

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Tests run without a terminal, so the action is invoked directly.
func TestRunWithSpinner(t *testing.T) {
	called := false
	err := RunWithSpinner(context.Background(), func(context.Context) error {
		called = true
		return nil
	}, WithTitle("exporting"))

	assert.NoError(t, err)
	assert.True(t, called)
}

func TestRunWithSpinner_Error(t *testing.T) {
	boom := errors.New("boom")
	err := RunWithSpinner(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunWithSpinner_Timeout(t *testing.T) {
	err := RunWithSpinner(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout(10*time.Millisecond))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
