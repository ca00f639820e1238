// Package scheduler drives the whole bot: it decides when ingestion runs,
// how long to wait on empty results, and how releases are paced inside the
// daily working window.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"passionbot/internal/ledger"
	"passionbot/internal/metrics"
	"passionbot/internal/queue"
)

// State names one node of the control-loop state machine.
type State string

const (
	StateIdle              State = "idle"
	StateIngesting         State = "ingesting"
	StateWaitingForContent State = "waiting_for_content"
	StatePublishing        State = "publishing"
	StateInterCycleWait    State = "inter_cycle_wait"
	StateEndOfHourWait     State = "end_of_hour_wait"
	StateOffHoursWait      State = "off_hours_wait"
)

// Ingester runs one discovery pass and reports how many items it enqueued.
type Ingester interface {
	Ingest(ctx context.Context, limit int) int
}

// Sender is the outbound delivery channel.
type Sender interface {
	SendPhoto(ctx context.Context, photoURL, caption string) error
	SendMessage(ctx context.Context, text string) error
}

// Config holds the timing policy. Hours are local to the process clock.
type Config struct {
	WindowStartHour int
	WindowEndHour   int
	PublishPerCycle int
	IngestLimit     int
	PauseMin        time.Duration
	PauseMax        time.Duration
	EmptyBackoff    time.Duration
	Hashtag         string
}

type Scheduler struct {
	cfg    Config
	ingest Ingester
	queue  *queue.Queue
	ledger ledger.Ledger
	sender Sender
	log    *slog.Logger

	state State
	now   func() time.Time
	pause func() time.Duration
}

func New(cfg Config, ingest Ingester, q *queue.Queue, led ledger.Ledger, sender Sender, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		ingest: ingest,
		queue:  q,
		ledger: led,
		sender: sender,
		log:    log,
		state:  StateIdle,
		now:    time.Now,
	}
	s.pause = func() time.Duration {
		span := cfg.PauseMax - cfg.PauseMin
		if span <= 0 {
			return cfg.PauseMin
		}
		return cfg.PauseMin + time.Duration(rand.Int63n(int64(span)))
	}
	return s
}

// Run executes the control loop until ctx is cancelled. Every sleep is a
// select on ctx, so shutdown never waits out a pause.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started",
		"window_start", s.cfg.WindowStartHour,
		"window_end", s.cfg.WindowEndHour,
		"per_cycle", s.cfg.PublishPerCycle)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.now()
		if !inWindow(now, s.cfg.WindowStartHour, s.cfg.WindowEndHour) {
			s.transition(StateOffHoursWait)
			wait := untilWindowStart(now, s.cfg.WindowStartHour, s.cfg.WindowEndHour)
			s.log.Info("outside working window", "sleep", wait.Round(time.Minute))
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if s.queue.Len() == 0 {
			filled, err := s.fillQueue(ctx)
			if err != nil {
				return err
			}
			if !filled {
				// Window closed while waiting for content.
				continue
			}
		}

		if err := s.publishCycle(ctx); err != nil {
			return err
		}

		s.transition(StateEndOfHourWait)
		wait := untilNextHour(s.now())
		s.log.Info("cycle complete, waiting for next hour", "sleep", wait.Round(time.Second))
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// fillQueue runs ingestion until something lands in the queue, backing off
// between empty passes. It re-checks the working window after every
// backoff so an empty night cannot keep the loop ingesting past the
// window's end.
func (s *Scheduler) fillQueue(ctx context.Context) (bool, error) {
	for {
		s.transition(StateIngesting)
		enqueued := s.ingest.Ingest(ctx, s.cfg.IngestLimit)
		metrics.Global.SetLastRun()
		if enqueued > 0 {
			return true, nil
		}

		s.transition(StateWaitingForContent)
		s.log.Info("no new content", "retry_in", s.cfg.EmptyBackoff)
		if err := s.sleep(ctx, s.cfg.EmptyBackoff); err != nil {
			return false, err
		}
		if !inWindow(s.now(), s.cfg.WindowStartHour, s.cfg.WindowEndHour) {
			return false, nil
		}
	}
}

// publishCycle releases up to PublishPerCycle items with a randomized
// pause between consecutive releases (never after the last one).
func (s *Scheduler) publishCycle(ctx context.Context) error {
	for released := 0; released < s.cfg.PublishPerCycle; released++ {
		item, ok := s.queue.Pop()
		if !ok {
			s.log.Info("queue drained before cycle finished", "released", released)
			break
		}

		s.transition(StatePublishing)
		s.release(ctx, item)

		if released+1 < s.cfg.PublishPerCycle && s.queue.Len() > 0 {
			s.transition(StateInterCycleWait)
			pause := s.pause()
			s.log.Info("pausing before next release", "pause", pause.Round(time.Second))
			if err := s.sleep(ctx, pause); err != nil {
				return err
			}
		}
	}
	return nil
}

// release attempts delivery (photo first, one text-only fallback) and then
// records the item in the ledger. Posted means attempted: a failed
// delivery is still recorded so a permanently-undeliverable item cannot
// wedge the bot, and a failed ledger write only logs — the link will be
// rediscovered and retried on a later pass.
func (s *Scheduler) release(ctx context.Context, item queue.Item) {
	caption := s.formatCaption(item)

	delivered := true
	if err := s.sender.SendPhoto(ctx, item.ImageURL, caption); err != nil {
		s.log.Warn("photo delivery failed, retrying as text", "title", item.Title, "error", err)
		metrics.Global.IncrementDeliveryFallbacks()
		if err := s.sender.SendMessage(ctx, caption); err != nil {
			s.log.Error("delivery failed", "title", item.Title, "link", item.Link, "error", err)
			metrics.Global.SetError(fmt.Sprintf("delivery failed: %v", err))
			delivered = false
		}
	}
	if delivered {
		metrics.Global.IncrementItemsPublished()
		s.log.Info("published", "title", item.Title)
	}

	if err := s.ledger.Record(ctx, item.ID, item.Title, item.Link); err != nil {
		s.log.Error("ledger write failed", "link", item.Link, "error", err)
		metrics.Global.SetError(fmt.Sprintf("ledger write failed: %v", err))
	}
}

func (s *Scheduler) formatCaption(item queue.Item) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s\n\n%s", item.Title, item.Content, s.cfg.Hashtag)
}

func (s *Scheduler) transition(next State) {
	if s.state == next {
		return
	}
	s.log.Debug("state transition", "from", string(s.state), "to", string(next))
	s.state = next
	metrics.Global.SetSchedulerState(string(next))
}

// State reports the current machine state.
func (s *Scheduler) State() State {
	return s.state
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func inWindow(t time.Time, startHour, endHour int) bool {
	return t.Hour() >= startHour && t.Hour() < endHour
}

// untilWindowStart computes the sleep that lands exactly on the window's
// start hour: same day when the window has not opened yet, next day when
// it has already closed.
func untilWindowStart(t time.Time, startHour, endHour int) time.Duration {
	next := time.Date(t.Year(), t.Month(), t.Day(), startHour, 0, 0, 0, t.Location())
	if t.Hour() >= endHour {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(t)
}

// untilNextHour computes the sleep to the top of the next clock hour.
func untilNextHour(t time.Time) time.Duration {
	next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
	return next.Sub(t)
}
