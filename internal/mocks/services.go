package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"workforce-service/internal/models"
)

// PublisherMock stands in for the AMQP publisher in notifier and audit tests.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func (m *PublisherMock) PublishJSON(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	return m.Called(ctx, routingKey, event, headers).Error(0)
}

func (m *PublisherMock) Close() error {
	return m.Called().Error(0)
}

// NotifierMock stands in for notifier.Service in handler tests.
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Send(ctx context.Context, req models.SendNotificationRequest) (models.Notification, error) {
	args := m.Called(ctx, req)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotifierMock) NotifyChatMembers(ctx context.Context, chat models.Chat, msg models.Message, senderName string) {
	m.Called(ctx, chat, msg, senderName)
}
