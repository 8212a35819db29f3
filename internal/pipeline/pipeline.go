package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize request messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RequestMessage, error)
}

// Processor answers one request message with a result message.
type Processor interface {
	Process(ctx context.Context, msg domain.RequestMessage) (domain.ResultMessage, error)
}

// BatchLoader writes result messages to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.ResultMessage) error
}

// Pipeline orchestrates the extract-process-load loop of the request worker.
type Pipeline struct {
	extractor BatchExtractor
	processor Processor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, p Processor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		processor: p,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil while the worker loop is running.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("request worker is not running")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("request worker started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.WorkerRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.WorkerRunning.Set(0)
	}()

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("request worker stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

const initialBackoff = 200 * time.Millisecond

// processBatch runs one extract-process-load cycle. Returns false if the worker should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	p.observeLag(batch)
	*backoff = initialBackoff

	loaded, ok := p.processAndLoad(ctx, batch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// processAndLoad answers each message in the batch, loads the results, and
// commits offsets. Returns the number of loaded results and false if the
// worker should stop.
func (p *Pipeline) processAndLoad(ctx context.Context, batch []domain.RequestMessage, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	results := make([]domain.ResultMessage, 0, len(batch))
	answered := make([]domain.RequestMessage, 0, len(batch))

	for _, msg := range batch {
		res, err := p.processor.Process(ctx, msg)
		if err != nil {
			p.logger.Warn("process failed, skipping message",
				"error", err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			p.metrics.Errors.WithLabelValues(string(domain.Classify(err))).Inc()
			p.commitOffset(ctx, msg)
			continue
		}
		results = append(results, res)
		answered = append(answered, msg)
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(results))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.MessagesProduced.Add(float64(len(results)))

	for _, msg := range answered {
		p.commitOffset(ctx, msg)
	}

	return len(results), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the worker should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// observeLag records how long each message waited on the topic. Messages
// without a broker timestamp are skipped, and clock skew never yields a
// negative lag.
func (p *Pipeline) observeLag(batch []domain.RequestMessage) {
	now := domain.Now()
	for _, msg := range batch {
		if msg.Timestamp.IsZero() {
			continue
		}
		p.metrics.QueueLag.Observe(max(now.Sub(msg.Timestamp), 0).Seconds())
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, msg domain.RequestMessage) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}
