package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RequestMessage is an undecoded request envelope read from the request topic.
type RequestMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ResultMessage is the document published to the result topic for one request.
type ResultMessage struct {
	ID          string          `json:"id"`
	Op          string          `json:"op"`
	Status      string          `json:"-"`
	ProcessedAt time.Time       `json:"processed_at"`
	Result      json.RawMessage `json:"result"`
}
