package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/channel"
	"github.com/pantrywatch/expiry-notifier/internal/config"
	"github.com/pantrywatch/expiry-notifier/internal/domain"
	"github.com/pantrywatch/expiry-notifier/internal/ratelimiter"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
)

// DrainResult is the aggregate outcome of one drain run.
// Processed counts entries a delivery attempt actually ran for; entries lost
// to an overlapping run's claim are skipped and appear in no counter.
type DrainResult struct {
	Success   bool   `json:"success"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// DrainerHooks carries the metric callback functions injected by main.
type DrainerHooks struct {
	OnSent   func(latency time.Duration)
	OnFailed func()
}

// Drainer delivers pending queue entries in priority order, pacing sends to
// respect the channel's rate budget and recording the outcome on each row.
type Drainer struct {
	repo    repository.QueueRepository
	sender  channel.Sender
	limiter *ratelimiter.DestinationLimiters
	cfg     *config.Config
	logger  *zap.Logger
	hooks   DrainerHooks
}

func NewDrainer(
	repo repository.QueueRepository,
	sender channel.Sender,
	limiter *ratelimiter.DestinationLimiters,
	cfg *config.Config,
	logger *zap.Logger,
	hooks DrainerHooks,
) *Drainer {
	if hooks.OnSent == nil {
		hooks.OnSent = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	return &Drainer{
		repo: repo, sender: sender, limiter: limiter,
		cfg: cfg, logger: logger, hooks: hooks,
	}
}

// Run fetches up to DrainLimit pending entries and processes them in
// batches of DrainBatchSize, sequentially within each batch.
// A failing fetch aborts the whole run; a failing send is recorded on its
// row and the run moves on.
func (d *Drainer) Run(ctx context.Context) *DrainResult {
	result := &DrainResult{}

	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	entries, err := d.repo.FetchPending(fetchCtx, d.cfg.DrainLimit)
	cancel()
	if err != nil {
		d.logger.Error("pending fetch failed", zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Success = true

	if len(entries) == 0 {
		return result
	}

	for start := 0; start < len(entries); start += d.cfg.DrainBatchSize {
		end := start + d.cfg.DrainBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		d.drainBatch(ctx, entries[start:end], result)
	}

	d.logger.Info("drain run finished",
		zap.Int("processed", result.Processed),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (d *Drainer) drainBatch(ctx context.Context, batch []*domain.QueueEntry, result *DrainResult) {
	for i, e := range batch {
		if i > 0 && !d.pace(ctx) {
			return // shutting down mid-batch
		}
		d.drainOne(ctx, e, result)
	}
}

func (d *Drainer) drainOne(ctx context.Context, e *domain.QueueEntry, result *DrainResult) {
	start := time.Now()
	log := d.logger.With(
		zap.String("entry_id", e.ID),
		zap.String("priority", string(e.Priority)),
		zap.Int64("chat_id", e.ChatID),
	)

	claimCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	claimed, err := d.repo.ClaimProcessing(claimCtx, e.ID)
	cancel()
	if err != nil {
		log.Error("claim failed", zap.Error(err))
		return
	}
	if !claimed {
		// An overlapping run got here first; that run owns the outcome.
		log.Debug("entry already claimed, skipping")
		return
	}

	result.Processed++

	if err := d.limiter.Wait(ctx, e.ChatID); err != nil {
		// ctx expired while waiting for a token; the entry stays in
		// processing for the external reconciliation sweep.
		log.Warn("rate limiter wait aborted", zap.Error(err))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	err = d.sender.Send(sendCtx, e.ChatID, e.Message(), "")
	cancel()
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("send failed", zap.Error(err))
		d.markFailed(ctx, e.ID, log)
		result.Failed++
		d.hooks.OnFailed()
		return
	}

	markCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	err = d.repo.MarkSent(markCtx, e.ID, time.Now().UTC())
	cancel()
	if err != nil {
		log.Error("failed to mark as sent", zap.Error(err))
		return
	}

	result.Sent++
	d.hooks.OnSent(elapsed)
	log.Info("reminder sent", zap.Duration("latency", elapsed))
}

func (d *Drainer) markFailed(ctx context.Context, id string, log *zap.Logger) {
	opCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	defer cancel()
	if err := d.repo.MarkFailed(opCtx, id); err != nil {
		log.Error("failed to mark as failed", zap.Error(err))
	}
}

// pace sleeps the configured inter-send delay, returning false if ctx is
// cancelled first.
func (d *Drainer) pace(ctx context.Context) bool {
	if d.cfg.SendDelay <= 0 {
		return true
	}
	select {
	case <-time.After(d.cfg.SendDelay):
		return true
	case <-ctx.Done():
		return false
	}
}
