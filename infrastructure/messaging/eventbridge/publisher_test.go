package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	calls  []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func createdEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewMemoryCreated(valueobjects.NewMemoryID(), "user-1", valueobjects.KindLink, "T", time.Now().UTC()))
	}
	return out
}

func TestPublishBatch_ChunksByTen(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "keepwise-events", "keepwise.memories", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), createdEvents(23)))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[1].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)
}

func TestPublish_EntryShape(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "keepwise-events", "keepwise.memories", nil)

	event := createdEvents(1)[0]
	require.NoError(t, p.Publish(context.Background(), event))

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "keepwise-events", aws.ToString(entry.EventBusName))
	assert.Equal(t, "keepwise.memories", aws.ToString(entry.Source))
	assert.Equal(t, events.TypeMemoryCreated, aws.ToString(entry.DetailType))
	assert.Equal(t, []string{"keepwise:memory/" + event.GetAggregateID()}, entry.Resources)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "user-1", detail["owner_id"])
	assert.Equal(t, "LINK", detail["kind"])
}

func TestPublishBatch_Failures(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		client := &fakeClient{err: errors.New("throttled")}
		p := NewPublisher(client, "bus", "src", nil)

		err := p.PublishBatch(context.Background(), createdEvents(2))
		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("partial failure", func(t *testing.T) {
		client := &fakeClient{output: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("1")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
			},
		}}
		p := NewPublisher(client, "bus", "src", nil)

		err := p.PublishBatch(context.Background(), createdEvents(2))
		assert.ErrorContains(t, err, "1 events failed")
	})

	t.Run("nothing to send", func(t *testing.T) {
		client := &fakeClient{}
		p := NewPublisher(client, "bus", "src", nil)

		require.NoError(t, p.PublishBatch(context.Background(), nil))
		assert.Empty(t, client.calls)
	})
}
