package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func TestDecodeJSON(t *testing.T) {
	p, err := DecodeJSON[payload]([]byte(`{"id":7,"text":"white cat"}`))
	require.NoError(t, err)
	assert.Equal(t, payload{ID: 7, Text: "white cat"}, p)

	_, err = DecodeJSON[payload]([]byte(`{not json`))
	assert.Error(t, err)
}

func TestConsumerOptions(t *testing.T) {
	rc := kafka.ReaderConfig{GroupID: "a", StartOffset: kafka.LastOffset}
	FromFirstOffset()(&rc)
	WithGroupID("b")(&rc)
	assert.Equal(t, kafka.FirstOffset, rc.StartOffset)
	assert.Equal(t, "b", rc.GroupID)
}
