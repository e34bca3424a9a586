package tui

import (
	"time"

	"github.com/mcolombo/buslens/internal/decode"
)

// Message is one captured payload as shown in the list pane. Decoding
// happens lazily, only for the inspected topic, so the list stays cheap
// at high message rates.
type Message struct {
	ID        int
	Topic     string
	Encoding  string
	Timestamp time.Time
	Body      []byte
}

func messageFromRaw(raw decode.Raw) Message {
	return Message{
		Topic:     raw.Topic,
		Encoding:  raw.Encoding,
		Timestamp: raw.Timestamp,
		Body:      raw.Body,
	}
}

func (m Message) raw() decode.Raw {
	return decode.Raw{
		Topic:     m.Topic,
		Encoding:  m.Encoding,
		Body:      m.Body,
		Timestamp: m.Timestamp,
	}
}
