package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"loyaltypush/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	readRetryDelay = time.Second
)

// Manager runs worker goroutines that consume the notification stream.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	stream   string
	group    string
	cfg      ManagerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = def.BlockTimeout
	}

	return &Manager{
		consumer: consumer,
		handler:  handler,
		stream:   queue.StreamNotifications,
		group:    queue.ConsumerGroupNotifications,
		cfg:      cfg,
	}
}

// Start ensures the consumer group and starts the workers. Stop shuts them down.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, m.stream, m.group); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 1; i <= m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go m.run(ctx, i)
	}

	log.Printf("[Manager] Started %d workers: stream=%s group=%s", m.cfg.WorkerCount, m.stream, m.group)
	return nil
}

// Stop cancels the workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] All workers stopped")
}

func (m *Manager) run(ctx context.Context, workerID int) {
	defer m.wg.Done()
	name := consumerNameForWorker(workerID)

	// Messages delivered before a crash are replayed first.
	for ctx.Err() == nil {
		batch, err := m.consumer.ReadPending(ctx, m.stream, m.group, name, m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker-%d] Error reading pending: %v", workerID, err)
			break
		}
		if len(batch) == 0 {
			break
		}
		log.Printf("[Worker-%d] Replaying %d pending messages", workerID, len(batch))
		m.handleBatch(ctx, workerID, batch)
	}

	for ctx.Err() == nil {
		batch, err := m.consumer.Read(ctx, m.stream, m.group, name, m.cfg.BatchSize, m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[Worker-%d] Error reading: %v", workerID, err)
			sleep(ctx, readRetryDelay)
			continue
		}
		m.handleBatch(ctx, workerID, batch)
	}

	log.Printf("[Worker-%d] Shutting down", workerID)
}

// handleBatch acknowledges each message right after handling it, failed
// or not, so pushes are never retried. Once ctx is cancelled the rest of the
// batch is left pending for replay; those messages were never handled.
func (m *Manager) handleBatch(ctx context.Context, workerID int, batch []queue.Message) {
	// An ACK must still land after Stop cancels ctx, or the handled
	// message would be replayed on restart.
	ackCtx := context.WithoutCancel(ctx)

	for _, msg := range batch {
		if ctx.Err() != nil {
			return
		}
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Printf("[Worker-%d] Handler error msgID=%s type=%s: %v", workerID, msg.ID, msg.Event.Type, err)
		}
		if err := m.consumer.Ack(ackCtx, m.stream, m.group, msg.ID); err != nil {
			log.Printf("[Worker-%d] ACK error msgID=%s: %v", workerID, msg.ID, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// consumerNameForWorker must be stable across restarts so pending messages
// are replayed to the same name.
func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
