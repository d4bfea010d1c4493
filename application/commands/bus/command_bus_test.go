package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "keepwise/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	Fail bool
}

func (c pingCommand) Validate() error {
	return nil
}

type invalidCommand struct{}

func (invalidCommand) Validate() error {
	return pkgerrors.NewValidationError("bad input")
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

type recordingRecorder struct {
	names []string
	errs  []error
}

func (r *recordingRecorder) RecordCommand(name string, err error, _ time.Duration) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestCommandBus_Send(t *testing.T) {
	logger := &recordingLogger{}
	recorder := &recordingRecorder{}
	b := NewCommandBus(LoggingMiddleware(logger), MetricsMiddleware(recorder))

	sentinel := pkgerrors.NewNotFoundError("memory")
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		if cmd.(pingCommand).Fail {
			return nil, sentinel
		}
		return "pong", nil
	})))

	result, err := b.Send(context.Background(), pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	_, err = b.Send(context.Background(), pingCommand{Fail: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err), "AppError survives wrapping")

	assert.Equal(t, []string{"Executing command", "Command succeeded", "Executing command"}, logger.infos)
	assert.Equal(t, []string{"Command failed"}, logger.errors)
	assert.Equal(t, []string{"pingCommand", "pingCommand"}, recorder.names)
	assert.Nil(t, recorder.errs[0])
	assert.Error(t, recorder.errs[1])
}

func TestCommandBus_Errors(t *testing.T) {
	b := NewCommandBus()

	_, err := b.Send(context.Background(), pingCommand{})
	assert.True(t, errors.Is(err, ErrHandlerNotFound))

	_, err = b.Send(context.Background(), invalidCommand{})
	assert.True(t, pkgerrors.IsValidation(err))

	h := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) { return nil, nil })
	require.NoError(t, b.Register(pingCommand{}, h))
	assert.Error(t, b.Register(pingCommand{}, h))
}
