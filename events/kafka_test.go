package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublishKeysByActivity(t *testing.T) {
	w := &recordingWriter{}
	k := &Kafka{writer: w}

	evt := InscriptionEvent{
		Type:          TypeInscriptionCreated,
		InscriptionID: "ins-1",
		UserID:        "user-1",
		ActivityRef:   "club:c1",
		Status:        "approved",
		OccurredAt:    time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, k.Publish(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "club:c1", string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)

	var decoded InscriptionEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, evt, decoded)
}

func TestKafkaPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker unreachable")
	k := &Kafka{writer: &recordingWriter{err: boom}}

	err := k.Publish(context.Background(), InscriptionEvent{Type: TypeInscriptionStatusChanged})
	assert.ErrorIs(t, err, boom)
}
