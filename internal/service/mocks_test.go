package service

import (
	"context"
	"sync"

	"loyaltypush/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================

type mockProfileRepository struct {
	getPushTokenFn    func(ctx context.Context, userID string) (string, error)
	updatePushTokenFn func(ctx context.Context, userID, token string) error
	getPushTokensFn   func(ctx context.Context, userIDs []string) ([]string, error)

	updateCalls    []updateTokenCall
	getTokensCalls [][]string
}

type updateTokenCall struct {
	UserID string
	Token  string
}

func (m *mockProfileRepository) GetPushToken(ctx context.Context, userID string) (string, error) {
	if m.getPushTokenFn != nil {
		return m.getPushTokenFn(ctx, userID)
	}
	return "", nil
}

func (m *mockProfileRepository) UpdatePushToken(ctx context.Context, userID, token string) error {
	m.updateCalls = append(m.updateCalls, updateTokenCall{UserID: userID, Token: token})
	if m.updatePushTokenFn != nil {
		return m.updatePushTokenFn(ctx, userID, token)
	}
	return nil
}

func (m *mockProfileRepository) GetPushTokens(ctx context.Context, userIDs []string) ([]string, error) {
	m.getTokensCalls = append(m.getTokensCalls, userIDs)
	if m.getPushTokensFn != nil {
		return m.getPushTokensFn(ctx, userIDs)
	}
	return []string{}, nil
}

type mockChatMemberRepository struct {
	getMemberIDsExceptFn func(ctx context.Context, chatID, excludeUserID string) ([]string, error)
}

func (m *mockChatMemberRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	return true, nil
}

func (m *mockChatMemberRepository) GetMemberIDsExcept(ctx context.Context, chatID, excludeUserID string) ([]string, error) {
	if m.getMemberIDsExceptFn != nil {
		return m.getMemberIDsExceptFn(ctx, chatID, excludeUserID)
	}
	return []string{}, nil
}

type mockNotificationRepository struct {
	createFn          func(ctx context.Context, record *model.NotificationRecord) error
	listByRecipientFn func(ctx context.Context, recipientID string, limit int) ([]model.NotificationRecord, error)
	listByChatFn      func(ctx context.Context, chatID string) ([]model.NotificationRecord, error)

	created []model.NotificationRecord
}

func (m *mockNotificationRepository) Create(ctx context.Context, record *model.NotificationRecord) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, record); err != nil {
			return err
		}
	}
	m.created = append(m.created, *record)
	return nil
}

func (m *mockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.NotificationRecord, error) {
	if m.listByRecipientFn != nil {
		return m.listByRecipientFn(ctx, recipientID, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepository) ListByChat(ctx context.Context, chatID string) ([]model.NotificationRecord, error) {
	if m.listByChatFn != nil {
		return m.listByChatFn(ctx, chatID)
	}
	return nil, nil
}

// =============================================================================
// MOCK GATEWAY
// =============================================================================

type mockGateway struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, msg model.PushMessage) error
	sent   []model.PushMessage
}

func (m *mockGateway) Send(ctx context.Context, msg model.PushMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

// =============================================================================
// MOCK PLATFORM
// =============================================================================

type mockPlatform struct {
	os         string
	isDevice   bool
	status     string
	requested  string
	token      string
	tokenErr   error
	channelErr error

	calls     []string
	channels  []model.NotificationChannel
	projectID string
}

func (p *mockPlatform) OS() string { return p.os }

func (p *mockPlatform) IsDevice() bool {
	p.calls = append(p.calls, "isDevice")
	return p.isDevice
}

func (p *mockPlatform) PermissionStatus(ctx context.Context) string {
	p.calls = append(p.calls, "status")
	return p.status
}

func (p *mockPlatform) RequestPermission(ctx context.Context) string {
	p.calls = append(p.calls, "request")
	return p.requested
}

func (p *mockPlatform) SetNotificationChannel(ctx context.Context, ch model.NotificationChannel) error {
	p.calls = append(p.calls, "channel")
	p.channels = append(p.channels, ch)
	return p.channelErr
}

func (p *mockPlatform) ExpoPushToken(ctx context.Context, projectID string) (string, error) {
	p.calls = append(p.calls, "token")
	p.projectID = projectID
	return p.token, p.tokenErr
}
