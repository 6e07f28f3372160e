package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdilSaeed0347/InsightFolio/internal/events"
)

type fakeStore struct {
	chats    []events.ChatEvent
	failures []events.StageFailureEvent
	err      error
}

func (f *fakeStore) InsertChat(_ context.Context, e events.ChatEvent) error {
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, e)
	return nil
}

func (f *fakeStore) InsertFailure(_ context.Context, e events.StageFailureEvent) error {
	if f.err != nil {
		return f.err
	}
	f.failures = append(f.failures, e)
	return nil
}

func TestConsumer_Handle(t *testing.T) {
	ctx := context.Background()
	chat := events.NewChatEvent("s-1", "projects", "en", 0.9, 2)
	chat.FailedStages = []string{"retriever"}
	chatData, err := json.Marshal(chat)
	require.NoError(t, err)

	failure := events.StageFailureEvent{
		RequestID: chat.ID,
		SessionID: "s-1",
		Stage:     "retriever",
		Error:     "db down",
		Timestamp: time.Now().UTC(),
	}
	failureData, err := json.Marshal(failure)
	require.NoError(t, err)

	store := &fakeStore{}
	c := NewConsumer(store, nil)

	require.NoError(t, c.handle(ctx, events.SubjectChat, chatData))
	require.NoError(t, c.handle(ctx, events.SubjectStageFailure, failureData))
	require.NoError(t, c.handle(ctx, events.SubjectPrefix+".unknown", []byte(`{}`)))

	require.Len(t, store.chats, 1)
	assert.Equal(t, chat.ID, store.chats[0].ID)
	assert.Equal(t, "projects", store.chats[0].QueryType)
	assert.Equal(t, []string{"retriever"}, store.chats[0].FailedStages)

	require.Len(t, store.failures, 1)
	assert.Equal(t, chat.ID, store.failures[0].RequestID)
	assert.Equal(t, "db down", store.failures[0].Error)
}

func TestConsumer_HandleErrors(t *testing.T) {
	ctx := context.Background()

	c := NewConsumer(&fakeStore{}, nil)
	assert.ErrorIs(t, c.handle(ctx, events.SubjectChat, []byte(`{broken`)), errMalformed)
	assert.ErrorIs(t, c.handle(ctx, events.SubjectStageFailure, []byte(`[]`)), errMalformed)

	data, err := json.Marshal(events.ChatEvent{ID: uuid.New(), QueryType: "skills"})
	require.NoError(t, err)
	failing := NewConsumer(&fakeStore{err: errors.New("insert failed")}, nil)
	assert.EqualError(t, failing.handle(ctx, events.SubjectChat, data), "insert failed")
}

type fakeMessage struct {
	subject string
	data    []byte
	settled string
}

func (m *fakeMessage) Subject() string { return m.subject }
func (m *fakeMessage) Data() []byte    { return m.data }

func (m *fakeMessage) Ack() error {
	m.settled = "ack"
	return nil
}

func (m *fakeMessage) Nak() error {
	m.settled = "nak"
	return nil
}

func (m *fakeMessage) Term() error {
	m.settled = "term"
	return nil
}

func TestConsumer_Settle(t *testing.T) {
	valid, err := json.Marshal(events.ChatEvent{ID: uuid.New(), QueryType: "skills"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		store   *fakeStore
		subject string
		data    []byte
		want    string
	}{
		{"stored", &fakeStore{}, events.SubjectChat, valid, "ack"},
		{"unknown subject", &fakeStore{}, events.SubjectPrefix + ".unknown", []byte(`{}`), "ack"},
		{"malformed chat", &fakeStore{}, events.SubjectChat, []byte(`{broken`), "term"},
		{"malformed failure", &fakeStore{}, events.SubjectStageFailure, []byte(`[]`), "term"},
		{"store down", &fakeStore{err: errors.New("insert failed")}, events.SubjectChat, valid, "nak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &fakeMessage{subject: tt.subject, data: tt.data}
			NewConsumer(tt.store, nil).settle(context.Background(), msg)
			assert.Equal(t, tt.want, msg.settled)
		})
	}
}

func TestSleep(t *testing.T) {
	assert.True(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.False(t, sleep(ctx, time.Minute))
	assert.Less(t, time.Since(start), time.Second)
}
