package ledger

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/i474232898/weather-briefing/internal/weather"
)

// DefaultHistory is the number of sends kept in RunRecord.History.
const DefaultHistory = 21

// Ledger is the in-memory view of a RunRecord bound to its store. It is
// loaded once per invocation and written only by MarkSent.
type Ledger struct {
	store      Store
	record     RunRecord
	maxHistory int
}

// Open loads the record from store.
func Open(ctx context.Context, store Store, maxHistory int) (*Ledger, error) {
	rec, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &Ledger{store: store, record: rec, maxHistory: maxHistory}, nil
}

// AlreadySent reports whether the period was published on date.
func (l *Ledger) AlreadySent(date time.Time, p weather.Period) bool {
	key := Key(date, p)
	if l.record.LastSentKey == key {
		return true
	}
	e, ok := l.record.Periods[p]
	return ok && e.Key == key
}

// MarkSent records a successful publication and persists it immediately.
// The in-memory view changes only when the save succeeds.
func (l *Ledger) MarkSent(ctx context.Context, date time.Time, p weather.Period, summary Summary, sentAt time.Time) error {
	next := l.copyRecord()
	e := Entry{Key: Key(date, p), Period: p, SentAt: sentAt, Summary: maps.Clone(summary)}

	next.LastSentKey = e.Key
	next.LastPeriod = p
	next.LastPeriodSnapshot = maps.Clone(summary)
	if next.Periods == nil {
		next.Periods = make(map[weather.Period]Entry)
	}
	next.Periods[p] = e

	next.History = append(next.History, e)
	if l.maxHistory > 0 && len(next.History) > l.maxHistory {
		over := len(next.History) - l.maxHistory
		next.History = next.History[over:]
	}

	if err := l.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	l.record = next
	return nil
}

// Previous returns the summary and period of the last publication.
func (l *Ledger) Previous() (Summary, weather.Period) {
	return maps.Clone(l.record.LastPeriodSnapshot), l.record.LastPeriod
}

// Record returns a copy of the current record.
func (l *Ledger) Record() RunRecord {
	return l.copyRecord()
}

func (l *Ledger) copyRecord() RunRecord {
	return cloneRecord(l.record)
}
