package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitSync(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), Event{
		SubjectID: "20215001",
		Action:    ActionVerified,
		Outcome:   "valid",
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "20215001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionVerified, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), Event{
			SubjectID: "20215001",
			Action:    ActionVerified,
		}))
	}
	pub.Close()

	events, err := store.ListBySubject(context.Background(), "20215001")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestEmitPreservesTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), Event{
		SubjectID: "20215001",
		Action:    ActionIssued,
		Timestamp: ts,
	}))

	events, _ := store.ListBySubject(context.Background(), "20215001")
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
}

func TestEnrichUserAgent(t *testing.T) {
	event := Event{SubjectID: "20215001"}
	event.EnrichUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	assert.Contains(t, event.Browser, "Chrome")
	assert.NotEmpty(t, event.OS)
	assert.False(t, event.Mobile)
}

func TestEnrichUserAgentEmpty(t *testing.T) {
	event := Event{SubjectID: "20215001"}
	event.EnrichUserAgent("")

	assert.Empty(t, event.Browser)
	assert.Empty(t, event.OS)
}
