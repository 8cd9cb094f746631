package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"loyaltypush/internal/cache"
	"loyaltypush/internal/model"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollBatch    = 50
)

// ScheduledPublisher queues a due notification for the workers.
// Satisfied by *queue.RedisPublisher.
type ScheduledPublisher interface {
	PublishScheduled(ctx context.Context, n model.ScheduledNotification) (string, error)
}

// Scheduler moves due scheduled notifications from the sorted set onto the stream.
type Scheduler struct {
	schedule  cache.ScheduleCache
	publisher ScheduledPublisher
	interval  time.Duration
	batch     int64
	now       func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewScheduler(schedule cache.ScheduleCache, publisher ScheduledPublisher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{
		schedule:  schedule,
		publisher: publisher,
		interval:  interval,
		batch:     DefaultPollBatch,
		now:       time.Now,
	}
}

// Start polls every interval until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("[Scheduler] Started (interval=%v)", s.interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[Scheduler] Shutting down")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// Tick claims everything due now and publishes it. It returns how many
// notifications were published. A claimed item whose publish fails is lost.
func (s *Scheduler) Tick(ctx context.Context) int {
	due, err := s.schedule.PopDue(ctx, s.now(), s.batch)
	if err != nil {
		log.Printf("[Scheduler] PopDue error: %v", err)
	}

	published := 0
	for _, n := range due {
		if _, err := s.publisher.PublishScheduled(ctx, n); err != nil {
			log.Printf("[Scheduler] Publish error: id=%s user=%s err=%v", n.ID, n.UserID, err)
			continue
		}
		published++
	}
	return published
}
