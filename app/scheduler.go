package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"newsx/domain"
	"newsx/internal/logger"
)

const defaultInterval = 5 * time.Minute

// CycleRunner runs one crawl cycle.
type CycleRunner interface {
	RunCrawlCycle(ctx context.Context) (int, error)
}

type feedLimiter interface {
	SetFeedConcurrency(n int)
	FeedConcurrency() int
}

type itemLimiter interface {
	SetItemConcurrency(n int)
	ItemConcurrency() int
}

var _ domain.Scheduler = (*Scheduler)(nil)

// Scheduler runs crawl cycles on a ticker and on demand. Cycles run one at a
// time on a single loop goroutine; triggers that arrive during a cycle are
// coalesced into one follow-up cycle.
type Scheduler struct {
	runner CycleRunner
	feeds  feedLimiter
	items  itemLimiter
	log    logger.Interface

	mu             sync.Mutex
	interval       time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	tickerStopChan chan struct{}
	done           chan struct{}
	started        bool

	trigger chan struct{}
}

func NewScheduler(runner CycleRunner, feeds feedLimiter, items itemLimiter, interval time.Duration, log logger.Interface) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		feeds:    feeds,
		items:    items,
		log:      log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.tickerStopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true
	go s.loop(s.done)
	s.log.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels any running cycle and waits for the loop to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.started = false
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("scheduler stopped")
	return nil
}

// Trigger asks for an immediate cycle and returns at once.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	if !s.started {
		return
	}
	close(s.tickerStopChan)
	s.tickerStopChan = make(chan struct{})
}

func (s *Scheduler) SetConcurrency(feeds, items int) error {
	if feeds <= 0 || items <= 0 {
		return fmt.Errorf("%w: concurrency must be > 0", domain.ErrInvalidInput)
	}
	s.feeds.SetFeedConcurrency(feeds)
	s.items.SetItemConcurrency(items)
	return nil
}

func (s *Scheduler) CurrentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) CurrentConcurrency() (feeds, items int) {
	return s.feeds.FeedConcurrency(), s.items.ItemConcurrency()
}

func (s *Scheduler) loop(done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		ctx := s.ctx
		interval := s.interval
		stopCh := s.tickerStopChan
		s.mu.Unlock()

		ticker := time.NewTicker(interval)
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-stopCh:
			ticker.Stop()
			continue
		case <-ticker.C:
			ticker.Stop()
			s.runCycle(ctx, "ticker")
		case <-s.trigger:
			ticker.Stop()
			s.runCycle(ctx, "trigger")
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, reason string) {
	n, err := s.runner.RunCrawlCycle(ctx)
	if err != nil {
		s.log.Error("crawl cycle failed", "reason", reason, "error", err)
		return
	}
	s.log.Info("crawl cycle done", "reason", reason, "persisted", n)
}
