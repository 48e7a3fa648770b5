package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/config"
	"github.com/pantrywatch/expiry-notifier/internal/domain"
	"github.com/pantrywatch/expiry-notifier/internal/inventory"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
)

// OffsetResult reports the staging outcome for one days-until-expiry offset.
type OffsetResult struct {
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Staged          int    `json:"staged"`
	Error           string `json:"error,omitempty"`
}

// PopulateResult is the aggregate outcome of one population run.
// Success is false only when every offset in the horizon failed.
type PopulateResult struct {
	Success     bool           `json:"success"`
	TotalStaged int            `json:"total_staged"`
	Swept       int64          `json:"swept"`
	Results     []OffsetResult `json:"results"`
}

// Populator scans the inventory for items expiring within the horizon and
// stages one queue entry per (item, days-until-expiry) pair. Re-running it
// on unchanged inventory stages nothing new: the repository upsert is keyed
// on exactly that pair.
type Populator struct {
	inv    inventory.Store
	repo   repository.QueueRepository
	cfg    *config.Config
	logger *zap.Logger

	// Hook for metrics — injected by main so the job stays metrics-agnostic.
	onStaged func(count int)
}

func NewPopulator(
	inv inventory.Store,
	repo repository.QueueRepository,
	cfg *config.Config,
	logger *zap.Logger,
	onStaged func(int),
) *Populator {
	if onStaged == nil {
		onStaged = func(int) {}
	}
	return &Populator{inv: inv, repo: repo, cfg: cfg, logger: logger, onStaged: onStaged}
}

// Run walks every offset in [0, horizon], fetching items that expire on
// exactly today+offset and upserting queue entries for them. A failing
// offset is reported in the result and does not stop the remaining offsets.
func (p *Populator) Run(ctx context.Context) *PopulateResult {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result := &PopulateResult{}

	// Retention sweep first: bound table growth across repeated runs.
	// A failing sweep must never block staging.
	swept, err := p.sweep(ctx, now)
	if err != nil {
		p.logger.Warn("retention sweep failed", zap.Error(err))
	}
	result.Swept = swept

	failedOffsets := 0
	for d := 0; d <= p.cfg.Horizon; d++ {
		or := p.stageOffset(ctx, today.AddDate(0, 0, d), d, now)
		if or.Error != "" {
			failedOffsets++
		}
		result.TotalStaged += or.Staged
		result.Results = append(result.Results, or)
	}

	// Total failure only when every offset in the horizon failed.
	result.Success = failedOffsets < len(result.Results)
	if result.TotalStaged > 0 {
		p.onStaged(result.TotalStaged)
	}

	p.logger.Info("population run finished",
		zap.Int("total_staged", result.TotalStaged),
		zap.Int64("swept", result.Swept),
		zap.Int("failed_offsets", failedOffsets),
	)
	return result
}

func (p *Populator) sweep(ctx context.Context, now time.Time) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	defer cancel()
	return p.repo.DeleteCreatedBefore(opCtx, now.Add(-p.cfg.RetentionWindow))
}

// stageOffset stages every eligible item expiring on exactly date.
// Items whose owner has no destination chat are silently excluded.
func (p *Populator) stageOffset(ctx context.Context, date time.Time, days int, now time.Time) OffsetResult {
	or := OffsetResult{DaysUntilExpiry: days}
	log := p.logger.With(zap.Int("days_until_expiry", days))

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	items, err := p.inv.FindByExpiryDate(fetchCtx, date)
	cancel()
	if err != nil {
		log.Error("inventory fetch failed", zap.Error(err))
		or.Error = err.Error()
		return or
	}
	if len(items) == 0 {
		return or
	}

	userIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if !seen[it.UserID] {
			seen[it.UserID] = true
			userIDs = append(userIDs, it.UserID)
		}
	}

	resolveCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	chatIDs, err := p.inv.ResolveChatIDs(resolveCtx, userIDs)
	cancel()
	if err != nil {
		log.Error("destination resolution failed", zap.Error(err))
		or.Error = err.Error()
		return or
	}

	var candidates []*domain.QueueEntry
	for _, it := range items {
		chatID, ok := chatIDs[it.UserID]
		if !ok {
			continue // owner unreachable, not an error
		}
		candidates = append(candidates, &domain.QueueEntry{
			ID:              uuid.New().String(),
			ItemID:          it.ID,
			UserID:          it.UserID,
			ChatID:          chatID,
			ItemName:        it.Name,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			Category:        it.Category,
			ExpiryDate:      date,
			DaysUntilExpiry: days,
			Priority:        domain.PriorityFor(days),
			Status:          domain.StatusPending,
			ScheduledAt:     now,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	for start := 0; start < len(candidates); start += p.cfg.UpsertBatchSize {
		end := start + p.cfg.UpsertBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		writeCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
		written, err := p.repo.UpsertBatch(writeCtx, candidates[start:end])
		cancel()
		if err != nil {
			log.Error("staging write failed", zap.Error(err),
				zap.Int("batch_start", start))
			or.Error = err.Error()
			continue
		}
		or.Staged += written
	}

	log.Debug("offset staged",
		zap.Int("eligible", len(candidates)),
		zap.Int("staged", or.Staged),
	)
	return or
}
