package tasks

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/overdue"
)

type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf entities.Date) iter.Seq2[overdue.Entry, error]
}

// SnapshotSaver persists a report and returns the name it was stored under.
type SnapshotSaver interface {
	SaveJSON(data any) (string, error)
}

type OverdueReportRecorder interface {
	LogOverdueReport(asOf entities.Date, count int, snapshot string, err error)
}

// OverdueReport is the document written for every run.
type OverdueReport struct {
	AsOf        entities.Date   `json:"as_of"`
	GeneratedAt time.Time       `json:"generated_at"`
	Count       int             `json:"count"`
	Entries     []overdue.Entry `json:"entries"`
	Snapshot    string          `json:"-"`
}

// OverdueReporter collects overdue loans, stores a snapshot and records the
// run in the audit trail. Saver and recorder are optional.
type OverdueReporter struct {
	lister   OverdueLister
	saver    SnapshotSaver
	recorder OverdueReportRecorder
	now      func() time.Time
}

func NewOverdueReporter(lister OverdueLister, saver SnapshotSaver, recorder OverdueReportRecorder) *OverdueReporter {
	return &OverdueReporter{
		lister:   lister,
		saver:    saver,
		recorder: recorder,
		now:      time.Now,
	}
}

// Run builds the report for asOf, or for today when asOf is zero.
func (r *OverdueReporter) Run(ctx context.Context, asOf entities.Date) (OverdueReport, error) {
	if asOf.IsZero() {
		asOf = entities.DateOf(r.now())
	}
	report := OverdueReport{AsOf: asOf, GeneratedAt: r.now().UTC()}

	entries, err := overdue.Collect(r.lister.ListOverdue(ctx, asOf))
	if err != nil {
		r.record(report, err)
		return report, fmt.Errorf("list overdue loans: %w", err)
	}
	report.Entries = entries
	report.Count = len(entries)

	if r.saver != nil {
		snapshot, err := r.saver.SaveJSON(report)
		if err != nil {
			r.record(report, err)
			return report, fmt.Errorf("save overdue report: %w", err)
		}
		report.Snapshot = snapshot
	}

	r.record(report, nil)
	log.Printf("[TASK] Overdue report as of %s: %d loans", asOf, report.Count)
	return report, nil
}

func (r *OverdueReporter) record(report OverdueReport, err error) {
	if r.recorder == nil {
		return
	}
	r.recorder.LogOverdueReport(report.AsOf, report.Count, report.Snapshot, err)
}

// OverdueReportTask produces an overdue report. AsOf is YYYY-MM-DD; empty
// means the day the task runs.
type OverdueReportTask struct {
	AsOf string `json:"as_of,omitempty"`
}

func (t OverdueReportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_report",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func OverdueReportProcessor(reporter *OverdueReporter) backlite.QueueProcessor[OverdueReportTask] {
	return func(ctx context.Context, task OverdueReportTask) error {
		if reporter == nil {
			return fmt.Errorf("overdue reporter not configured")
		}

		var asOf entities.Date
		if task.AsOf != "" {
			parsed, err := entities.ParseDate(task.AsOf)
			if err != nil {
				// Retrying cannot fix a malformed date.
				log.Printf("[TASK] Overdue report skipped: %v", err)
				return nil
			}
			asOf = parsed
		}

		_, err := reporter.Run(ctx, asOf)
		return err
	}
}

func NewOverdueReportQueue(reporter *OverdueReporter) backlite.Queue {
	return backlite.NewQueue(OverdueReportProcessor(reporter))
}
