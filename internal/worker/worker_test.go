package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"loyaltypush/internal/cache"
	"loyaltypush/internal/model"
	"loyaltypush/internal/queue"
	"loyaltypush/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockDispatcher records every fan-out it is asked to run.
type MockDispatcher struct {
	mu       sync.Mutex
	messages []model.OutgoingMessage
}

func (m *MockDispatcher) SendPushNotificationsToOtherUsers(ctx context.Context, msg model.OutgoingMessage) model.FanoutResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return model.FanoutResult{Title: msg.Sender.DisplayName(), Recipients: 1, Sent: 1, Recorded: 1}
}

func (m *MockDispatcher) Messages() []model.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutgoingMessage(nil), m.messages...)
}

// MockDeliverer records scheduled deliveries.
type MockDeliverer struct {
	mu        sync.Mutex
	err       error
	delivered []model.ScheduledNotification
}

func (m *MockDeliverer) DeliverScheduled(ctx context.Context, n model.ScheduledNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, n)
	return m.err
}

func (m *MockDeliverer) Delivered() []model.ScheduledNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ScheduledNotification(nil), m.delivered...)
}

// MockPublisher records scheduled publishes.
type MockPublisher struct {
	err       error
	published []model.ScheduledNotification
}

func (m *MockPublisher) PublishScheduled(ctx context.Context, n model.ScheduledNotification) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.published = append(m.published, n)
	return "1-0", nil
}

// StaticSchedule returns a fixed set of due notifications once.
type StaticSchedule struct {
	due []model.ScheduledNotification
	err error
}

func (s *StaticSchedule) Add(ctx context.Context, n model.ScheduledNotification) error { return nil }

func (s *StaticSchedule) PopDue(ctx context.Context, now time.Time, limit int64) ([]model.ScheduledNotification, error) {
	due := s.due
	s.due = nil
	return due, s.err
}

func (s *StaticSchedule) Size(ctx context.Context) (int64, error) { return int64(len(s.due)), nil }

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// DB 1 keeps test data away from dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)
	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx := context.Background()
	client.FlushDB(ctx)
	client.Close()
}

func chatMessage() model.OutgoingMessage {
	return model.OutgoingMessage{
		Content:   "[Image:xyz]",
		ChatID:    "g1",
		IsGroup:   true,
		GroupName: "Team",
		Sender:    model.Sender{ID: "u1", Username: "Ann"},
	}
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleEvent_ChatMessage(t *testing.T) {
	dispatcher := &MockDispatcher{}
	handler := worker.NewHandler(dispatcher, &MockDeliverer{})

	if err := handler.HandleEvent(context.Background(), queue.NewChatMessageEvent(chatMessage())); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	got := dispatcher.Messages()
	if len(got) != 1 || got[0].ChatID != "g1" || got[0].Sender.ID != "u1" {
		t.Errorf("dispatched = %+v", got)
	}
}

func TestHandleEvent_Scheduled(t *testing.T) {
	deliverer := &MockDeliverer{}
	handler := worker.NewHandler(&MockDispatcher{}, deliverer)
	n := model.ScheduledNotification{ID: "s1", UserID: "u1", Title: "Hi", Body: "There"}

	if err := handler.HandleEvent(context.Background(), queue.NewScheduledEvent(n)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if got := deliverer.Delivered(); len(got) != 1 || got[0] != n {
		t.Errorf("delivered = %+v", got)
	}
}

func TestHandleEvent_Errors(t *testing.T) {
	tests := []struct {
		name      string
		deliverer *MockDeliverer
		event     queue.NotificationEvent
	}{
		{name: "unknown type", deliverer: &MockDeliverer{}, event: queue.NotificationEvent{Type: "post_liked"}},
		{name: "chat message without payload", deliverer: &MockDeliverer{}, event: queue.NotificationEvent{Type: queue.EventChatMessage}},
		{name: "scheduled without payload", deliverer: &MockDeliverer{}, event: queue.NotificationEvent{Type: queue.EventScheduled}},
		{
			name:      "delivery fails",
			deliverer: &MockDeliverer{err: errors.New("gateway down")},
			event:     queue.NewScheduledEvent(model.ScheduledNotification{ID: "s1"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := worker.NewHandler(&MockDispatcher{}, tt.deliverer)
			if err := handler.HandleEvent(context.Background(), tt.event); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// =============================================================================
// Scheduler Tests
// =============================================================================

func TestSchedulerTick(t *testing.T) {
	schedule := &StaticSchedule{due: []model.ScheduledNotification{{ID: "s1"}, {ID: "s2"}}}
	publisher := &MockPublisher{}
	s := worker.NewScheduler(schedule, publisher, time.Second)

	if n := s.Tick(context.Background()); n != 2 {
		t.Errorf("published = %d, want 2", n)
	}
	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("second tick published = %d, want 0", n)
	}
	if len(publisher.published) != 2 {
		t.Errorf("publisher saw %d, want 2", len(publisher.published))
	}
}

func TestSchedulerTick_PublishFailure(t *testing.T) {
	schedule := &StaticSchedule{due: []model.ScheduledNotification{{ID: "s1"}}}
	s := worker.NewScheduler(schedule, &MockPublisher{err: errors.New("xadd failed")}, time.Second)

	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("published = %d, want 0", n)
	}
}

// =============================================================================
// Stream + Worker Integration Tests
// =============================================================================

// TestStreamToWorkerIntegration covers Publisher -> Stream -> Consumer -> Handler.
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	dispatcher := &MockDispatcher{}
	handler := worker.NewHandler(dispatcher, &MockDeliverer{})

	if err := consumer.EnsureGroup(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}
	// Second call must tolerate BUSYGROUP
	if err := consumer.EnsureGroup(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications); err != nil {
		t.Fatalf("EnsureGroup (existing) failed: %v", err)
	}

	if _, err := publisher.PublishChatMessage(ctx, chatMessage()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	messages, err := consumer.Read(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications, "test-worker", 10, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if err := handler.HandleEvent(ctx, msg.Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if err := consumer.Ack(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications, msg.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	if got := dispatcher.Messages(); len(got) != 1 || got[0].Content != "[Image:xyz]" {
		t.Errorf("dispatched = %+v", got)
	}

	pending, _ := consumer.Pending(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications)
	if pending != 0 {
		t.Errorf("Expected 0 pending messages, got %d", pending)
	}
}

// TestManagerProcessesStream runs real worker goroutines against Redis.
func TestManagerProcessesStream(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	dispatcher := &MockDispatcher{}
	manager := worker.NewManager(
		queue.NewConsumer(client),
		worker.NewHandler(dispatcher, &MockDeliverer{}),
		worker.ManagerConfig{WorkerCount: 2, BlockTimeout: 100 * time.Millisecond},
	)
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	publisher := queue.NewPublisher(client)
	for i := 0; i < 3; i++ {
		if _, err := publisher.PublishChatMessage(ctx, chatMessage()); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(dispatcher.Messages()) < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := len(dispatcher.Messages()); got != 3 {
		t.Errorf("dispatched %d messages, want 3", got)
	}
}

// TestScheduledEndToEnd covers ScheduleCache -> Scheduler -> Stream -> Handler.
func TestScheduledEndToEnd(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	schedule := cache.NewScheduleCache(client)
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	deliverer := &MockDeliverer{}
	handler := worker.NewHandler(&MockDispatcher{}, deliverer)

	if err := consumer.EnsureGroup(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}

	now := time.Now().Unix()
	schedule.Add(ctx, model.ScheduledNotification{ID: "due", UserID: "u1", Title: "Now", DueAt: now - 1})
	schedule.Add(ctx, model.ScheduledNotification{ID: "later", UserID: "u1", Title: "Later", DueAt: now + 3600})

	s := worker.NewScheduler(schedule, publisher, time.Second)
	if n := s.Tick(ctx); n != 1 {
		t.Fatalf("published = %d, want 1", n)
	}

	messages, err := consumer.Read(ctx, queue.StreamNotifications, queue.ConsumerGroupNotifications, "test-worker", 10, time.Second)
	if err != nil || len(messages) != 1 {
		t.Fatalf("Read = %d messages, err %v", len(messages), err)
	}
	if err := handler.HandleEvent(ctx, messages[0].Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if got := deliverer.Delivered(); len(got) != 1 || got[0].ID != "due" {
		t.Errorf("delivered = %+v", got)
	}
	if size, _ := schedule.Size(ctx); size != 1 {
		t.Errorf("schedule size = %d, want 1", size)
	}
}

// =============================================================================
// Manager Acknowledgement Tests
// =============================================================================

// recordingConsumer serves one batch, then blocks until shutdown.
// Ack fails like a Redis client would when its ctx is cancelled.
type recordingConsumer struct {
	mu     sync.Mutex
	batch  []queue.Message
	served bool
	log    []string
}

func (c *recordingConsumer) record(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, entry)
}

func (c *recordingConsumer) Log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

func (c *recordingConsumer) EnsureGroup(ctx context.Context, stream, group string) error { return nil }

func (c *recordingConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	if !c.served {
		c.served = true
		c.mu.Unlock()
		return c.batch, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *recordingConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	return nil, nil
}

func (c *recordingConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if err := ctx.Err(); err != nil {
		c.record("ack-failed")
		return err
	}
	for _, id := range messageIDs {
		c.record("ack:" + id)
	}
	return nil
}

func (c *recordingConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	return 0, nil
}

// hookDispatcher runs onSend for every fan-out it receives.
type hookDispatcher struct {
	onSend func(msg model.OutgoingMessage)
}

func (d *hookDispatcher) SendPushNotificationsToOtherUsers(ctx context.Context, msg model.OutgoingMessage) model.FanoutResult {
	d.onSend(msg)
	return model.FanoutResult{}
}

func messageWithContent(id, content string) queue.Message {
	msg := chatMessage()
	msg.Content = content
	return queue.Message{ID: id, Event: queue.NewChatMessageEvent(msg)}
}

func TestManagerAcksEachMessageRightAfterHandling(t *testing.T) {
	consumer := &recordingConsumer{batch: []queue.Message{
		messageWithContent("1-0", "first"),
		messageWithContent("2-0", "second"),
		messageWithContent("3-0", "third"),
	}}
	done := make(chan struct{})
	dispatcher := &hookDispatcher{onSend: func(msg model.OutgoingMessage) {
		consumer.record("handle:" + msg.Content)
		if msg.Content == "third" {
			close(done)
		}
	}}

	manager := worker.NewManager(consumer, worker.NewHandler(dispatcher, nil), worker.ManagerConfig{WorkerCount: 1})
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch was not handled")
	}
	manager.Stop()

	want := []string{"handle:first", "ack:1-0", "handle:second", "ack:2-0", "handle:third", "ack:3-0"}
	if got := consumer.Log(); !equalStrings(got, want) {
		t.Errorf("log = %v, want %v", got, want)
	}
}

func TestManagerAcksHandledMessageAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &recordingConsumer{batch: []queue.Message{
		messageWithContent("1-0", "first"),
		messageWithContent("2-0", "second"),
	}}
	// Shutdown arrives while the first fan-out is in flight.
	handled := make(chan struct{})
	dispatcher := &hookDispatcher{onSend: func(msg model.OutgoingMessage) {
		consumer.record("handle:" + msg.Content)
		cancel()
		close(handled)
	}}

	manager := worker.NewManager(consumer, worker.NewHandler(dispatcher, nil), worker.ManagerConfig{WorkerCount: 1})
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("first message was not handled")
	}
	manager.Stop()

	// The handled message is acknowledged; the untouched one stays pending.
	want := []string{"handle:first", "ack:1-0"}
	if got := consumer.Log(); !equalStrings(got, want) {
		t.Errorf("log = %v, want %v", got, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
