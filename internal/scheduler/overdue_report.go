package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/circulation/internal/config"
	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/tasks"
)

type ReportRunner interface {
	Run(ctx context.Context, asOf entities.Date) (tasks.OverdueReport, error)
}

type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// OverdueReportScheduler produces the overdue report on a cron schedule.
// With a task queue the report is enqueued and retried there; without one
// it runs inline.
type OverdueReportScheduler struct {
	runner   ReportRunner
	enqueuer TaskEnqueuer
	settings config.OverdueReport

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	now        func() time.Time
}

func NewOverdueReportScheduler(settings config.OverdueReport, runner ReportRunner, enqueuer TaskEnqueuer) *OverdueReportScheduler {
	return &OverdueReportScheduler{
		runner:   runner,
		enqueuer: enqueuer,
		settings: settings,
		cron:     cron.New(cron.WithParser(parser)),
		now:      time.Now,
	}
}

// Start schedules the report if it is enabled. The scheduler stops when ctx
// is cancelled.
func (s *OverdueReportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.settings.Enabled {
		log.Printf("[SCHEDULER] Overdue report: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.settings.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.settings.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.settings.Schedule, func() {
		if err := s.RunNow(context.Background()); err != nil {
			log.Printf("[SCHEDULER] Overdue report failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule overdue report: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.settings.Schedule, s.now())
	log.Printf("[SCHEDULER] Overdue report: started with schedule '%s' (%s). Next run: %v",
		s.settings.Schedule, CronDescription(s.settings.Schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running report to finish.
func (s *OverdueReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("[SCHEDULER] Overdue report: stopped")
}

// RunNow produces a report for today immediately.
func (s *OverdueReportScheduler) RunNow(ctx context.Context) error {
	asOf := entities.DateOf(s.now())

	if s.enqueuer != nil {
		id, err := s.enqueuer.Enqueue(tasks.OverdueReportTask{AsOf: asOf.String()})
		if err != nil {
			return err
		}
		log.Printf("[SCHEDULER] Overdue report as of %s enqueued: %s", asOf, id)
		return nil
	}

	if s.runner == nil {
		return fmt.Errorf("overdue report runner not configured")
	}
	_, err := s.runner.Run(ctx, asOf)
	return err
}

func (s *OverdueReportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next report will be produced, or nil when the
// scheduler is not running.
func (s *OverdueReportScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}
