// Package briefing runs one invocation: acquire, derive, classify,
// narrate, compose, publish and record.
package briefing

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/events"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/narrative"
	"github.com/i474232898/weather-briefing/internal/observability"
	"github.com/i474232898/weather-briefing/internal/publish"
	"github.com/i474232898/weather-briefing/internal/report"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

// Acquirer supplies the fused telemetry for a run.
type Acquirer interface {
	Acquire(ctx context.Context, loc weather.Location, now time.Time) (weather.Acquisition, error)
}

// Narrator produces the narrative. It never fails; see narrative.Cascade.
type Narrator interface {
	Generate(ctx context.Context, facts narrative.Facts, style narrative.Style) narrative.Result
}

// Options are the run parameters taken from configuration.
type Options struct {
	Location         weather.Location
	Periods          weather.PeriodSchedule
	NarrativePeriods []weather.Period
	Analysis         analysis.Thresholds
	Severity         severity.Thresholds
	Language         string
	Hashtag          string
	Banner           string
	HistorySize      int
}

// Deps are the collaborators of the pipeline.
type Deps struct {
	Gateway   Acquirer
	Narrator  Narrator
	Publisher publish.Publisher
	Store     ledger.Store
	Emitter   events.Emitter
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Clock     clockwork.Clock
}

// Pipeline is the run-once state machine. It holds no state between runs;
// everything persistent lives in the ledger store.
type Pipeline struct {
	opts Options
	deps Deps
}

func New(opts Options, deps Deps) *Pipeline {
	if deps.Emitter == nil {
		deps.Emitter = events.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{opts: opts, deps: deps}
}

// RunOnce executes a single invocation for the instant now.
func (p *Pipeline) RunOnce(ctx context.Context, now time.Time) (status ExitStatus) {
	started := p.deps.Clock.Now()
	runID := uuid.NewString()
	logger := p.deps.Logger.With("run_id", runID)

	defer func() {
		p.deps.Metrics.Runs.WithLabelValues(status.String()).Inc()
		p.deps.Metrics.RunDuration.Observe(p.deps.Clock.Since(started).Seconds())
		logger.Info("run finished", "status", status.String(), "exit_code", status.Code())
	}()

	local := now
	if p.opts.Location.Timezone != nil {
		local = now.In(p.opts.Location.Timezone)
	}

	period := p.opts.Periods.At(local)
	if period == weather.PeriodNone {
		logger.Info("outside every report period", "hour", local.Hour())
		return StatusSkipped
	}
	logger = logger.With("period", period, "key", ledger.Key(local, period))

	led, err := ledger.Open(ctx, p.deps.Store, p.opts.HistorySize)
	if err != nil {
		logger.Error("ledger unavailable", "error", err)
		return StatusLedgerFailed
	}
	if led.AlreadySent(local, period) {
		logger.Info("period already published")
		return StatusSkipped
	}

	acq, err := p.deps.Gateway.Acquire(ctx, p.opts.Location, local)
	if err != nil {
		logger.Error("acquisition failed, aborting", "error", err)
		return StatusAborted
	}
	snap := acq.Snapshot
	if len(snap.Gaps) > 0 {
		logger.Warn("publishing with partial data", "gaps", snap.Gaps)
	}

	metrics := analysis.Derive(snap, acq.Hourly, acq.Daily, p.opts.Analysis)
	alerts := severity.Classify(snap, metrics, p.opts.Severity)
	for _, a := range alerts {
		p.deps.Metrics.Alerts.WithLabelValues(string(a.Hazard), a.Tier.String()).Inc()
	}

	weekly := weather.WeeklyOutlook(local, period)
	prev, prevPeriod := led.Previous()

	var narr narrative.Result
	withNarrative := slices.Contains(p.opts.NarrativePeriods, period)
	if withNarrative {
		facts := narrative.BuildFacts(narrative.Input{
			Snapshot:       snap,
			Metrics:        metrics,
			Alerts:         alerts,
			Previous:       prev,
			PreviousPeriod: prevPeriod,
			Weekly:         weekly,
		})
		narr = p.deps.Narrator.Generate(ctx, facts, narrative.Style{
			Period:   period,
			Weekly:   weekly,
			Language: p.opts.Language,
		})
	}

	msg := report.Compose(report.Input{
		Snapshot:         snap,
		Metrics:          metrics,
		Alerts:           alerts,
		Period:           period,
		Weekly:           weekly,
		Narrative:        narr.Text,
		IncludeNarrative: withNarrative,
		Previous:         prev,
		PreviousPeriod:   prevPeriod,
		Hashtag:          p.opts.Hashtag,
		Banner:           p.opts.Banner,
	})

	receipt, err := p.deps.Publisher.Deliver(ctx, msg)
	if err != nil {
		logger.Error("delivery failed, period left unmarked", "error", err)
		return StatusDeliveryFailed
	}
	logger.Info("report delivered", "format", receipt.Format, "message_id", receipt.MessageID)

	summary := ledger.Summarize(snap)
	if err := led.MarkSent(ctx, local, period, summary, p.deps.Clock.Now()); err != nil {
		logger.Error("report delivered but ledger not updated", "error", err)
		return StatusLedgerFailed
	}

	p.emit(ctx, logger, events.RunEvent{
		ID:               runID,
		Location:         p.opts.Location.Name,
		Key:              ledger.Key(local, period),
		Period:           string(period),
		Status:           StatusSent.String(),
		PublishedAt:      p.deps.Clock.Now(),
		Format:           receipt.Format,
		MessageID:        receipt.MessageID,
		NarrativeBackend: narr.Backend,
		Alerts:           eventAlerts(alerts),
		Gaps:             eventGaps(snap.Gaps),
		Summary:          summary,
	})
	return StatusSent
}

// emit is best-effort: the report is already out and recorded.
func (p *Pipeline) emit(ctx context.Context, logger *slog.Logger, ev events.RunEvent) {
	if err := p.deps.Emitter.Emit(ctx, ev); err != nil {
		p.deps.Metrics.EventsEmitted.WithLabelValues("error").Inc()
		logger.Warn("run event not written", "error", err)
		return
	}
	p.deps.Metrics.EventsEmitted.WithLabelValues("success").Inc()
}

func eventAlerts(alerts []severity.Alert) []events.Alert {
	out := make([]events.Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, events.Alert{Hazard: string(a.Hazard), Tier: a.Tier.String()})
	}
	return out
}

func eventGaps(gaps []weather.Category) []string {
	out := make([]string, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, string(g))
	}
	return out
}
