package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/domain"
)

// RequestProcessor implements Processor by decoding request envelopes and
// handing them to a dispatch.Handler. Undecodable envelopes are answered with
// an error document rather than dropped, so producers always get a reply.
type RequestProcessor struct {
	handler dispatch.Handler
	logger  *slog.Logger
}

// NewProcessor creates a RequestProcessor backed by handler.
func NewProcessor(handler dispatch.Handler, logger *slog.Logger) *RequestProcessor {
	return &RequestProcessor{handler: handler, logger: logger}
}

// RequestIDHeader names the Kafka header producers may set to correlate an
// envelope that cannot be decoded far enough to yield its own id.
const RequestIDHeader = "request_id"

func (p *RequestProcessor) Process(ctx context.Context, msg domain.RequestMessage) (domain.ResultMessage, error) {
	id, op, req, err := dispatch.DecodeEnvelope(msg.Value)
	if id == "" {
		id = msg.Headers[RequestIDHeader]
	}
	if id == "" {
		id = string(msg.Key)
	}

	var resp dispatch.Response
	if err != nil {
		p.logger.Debug("undecodable request envelope",
			"request_id", id, "op", op, "offset", msg.Offset, "error", err)
		resp = dispatch.ErrorResponse(op, err)
	} else {
		if !msg.Timestamp.IsZero() {
			p.logger.Debug("dispatching request",
				"request_id", id, "op", op, "queued_for", domain.Now().Sub(msg.Timestamp))
		}
		resp = p.handler.Handle(ctx, req)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return domain.ResultMessage{}, fmt.Errorf("%w: serialize result %s: %w", domain.ErrInternal, id, err)
	}

	return domain.ResultMessage{
		ID:          id,
		Op:          string(op),
		Status:      resp.Status(),
		ProcessedAt: domain.Now(),
		Result:      body,
	}, nil
}
