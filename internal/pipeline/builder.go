package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/logger"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/reference"
	"power-market-lab/internal/storage"
)

// Fetcher retrieves the text body of a report URL.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Builder fetches the configured reports and assembles day views.
type Builder struct {
	fetcher Fetcher
	sources []Source
	lookup  *reference.Lookup
	opts    Options
	logger  *zap.Logger
	clock   func() time.Time
}

// NewBuilder creates a Builder. lookup may be nil, in which case every day
// uses the synthetic reference.
func NewBuilder(fetcher Fetcher, sources []Source, lookup *reference.Lookup, opts Options, log *zap.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		sources: sources,
		lookup:  lookup,
		opts:    opts,
		logger:  logger.OrNop(log),
		clock:   time.Now,
	}
}

// WithClock sets a custom clock for deterministic output.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Today returns the current calendar date in the market zone.
func (b *Builder) Today() time.Time {
	now := b.clock().In(b.market())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// FetchAll retrieves every source concurrently and waits for all of them.
// A failed fetch never cancels the others; it is recorded in the result.
func (b *Builder) FetchAll(ctx context.Context) RawReports {
	raw := NewRawReports()
	var mu sync.Mutex

	var g errgroup.Group
	for _, src := range b.sources {
		g.Go(func() error {
			text, err := b.fetcher.FetchText(ctx, src.URL)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("report fetch failed",
					zap.String("report", src.Report),
					zap.String("url", src.URL),
					zap.Error(err))
				raw.Fail(src.Report, err)
				return nil
			}
			raw.Set(src.Report, text)
			return nil
		})
	}
	_ = g.Wait()

	return raw
}

// BuildDay fetches all reports and assembles date. The only error is
// cancellation of ctx.
func (b *Builder) BuildDay(ctx context.Context, date time.Time) (*DayView, error) {
	start := time.Now()
	raw := b.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		observability.RecordDayBuild("canceled", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}
	return b.assemble(ctx, date, raw, start)
}

// BuildFromRaw assembles date from texts obtained elsewhere, such as offline files.
func (b *Builder) BuildFromRaw(ctx context.Context, date time.Time, raw RawReports) (*DayView, error) {
	return b.assemble(ctx, date, raw, time.Now())
}

func (b *Builder) assemble(ctx context.Context, date time.Time, raw RawReports, start time.Time) (*DayView, error) {
	date = domain.DateOf(date)
	ref := b.Reference(ctx, date)

	opts := b.opts
	opts.MarketLocation = b.market()
	opts.Now = b.clock
	if opts.CurrentHE == 0 {
		opts.CurrentHE = b.currentHE(date)
	}

	view := Assemble(date, raw, ref, opts)
	b.record(view, time.Since(start))
	return view, nil
}

// Reference loads the historical reference day for date, falling back to the
// synthetic reference role when the store has nothing or fails.
func (b *Builder) Reference(ctx context.Context, date time.Time) Reference {
	if b.lookup == nil {
		return SyntheticReference(date)
	}

	records, err := b.lookup.Day(ctx, date)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Warn("reference lookup failed, using synthetic reference",
				zap.String("date", date.Format(domain.DateLayout)),
				zap.Error(err))
		}
		return SyntheticReference(date)
	}

	flows, err := b.lookup.NetFlowByHE(ctx, date)
	if err != nil {
		b.logger.Warn("reference net flow failed",
			zap.String("date", date.Format(domain.DateLayout)),
			zap.Error(err))
		flows = nil
	}
	return Reference{Source: ReferenceHistorical, Records: records, NetFlow: flows}
}

// currentHE is the hour ending in progress when date is today in the market
// zone, otherwise zero.
func (b *Builder) currentHE(date time.Time) int {
	now := b.clock().In(b.market())
	if !domain.SameDate(now, date) {
		return 0
	}
	return now.Hour() + 1
}

func (b *Builder) market() *time.Location {
	if b.opts.MarketLocation == nil {
		return time.UTC
	}
	return b.opts.MarketLocation
}

func (b *Builder) record(view *DayView, elapsed time.Duration) {
	for _, d := range view.DebugList() {
		observability.RecordParse(d.Report, string(d.Status), d.Parsed, d.Skipped)
	}
	if rec, ok := view.Record(view.CurrentHE); ok && rec.CushionPercent != nil {
		observability.SetCurrentCushion(*rec.CushionPercent)
	}
	observability.RecordDayBuild("ok", elapsed.Seconds(), view.LiveHours, b.clock().Unix())

	b.logger.Info("day assembled",
		zap.String("date", view.Date.Format(domain.DateLayout)),
		zap.Int("live_hours", view.LiveHours),
		zap.String("snapshot_id", view.SnapshotID),
		zap.String("reference", view.Reference.Source),
		zap.Duration("elapsed", elapsed))
}
