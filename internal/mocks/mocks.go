package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"workforce-service/internal/models"
	"workforce-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateGroup(ctx context.Context, creatorID int, req models.CreateGroupRequest) (models.Chat, error) {
	args := m.Called(ctx, creatorID, req)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetOrCreateDirect(ctx context.Context, userID int, otherID int) (models.Chat, bool, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) AddMember(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) RemoveMember(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkChatRead(ctx context.Context, chatID int, userID int) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

// CreateNotification returns either a fixed notification or, when the
// expectation returns a func, the result of calling it with the input.
func (m *NotificationRepositoryMock) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var out models.Notification
	switch val := args.Get(0).(type) {
	case models.Notification:
		out = val
	case func(context.Context, models.Notification) models.Notification:
		out = val(ctx, n)
	}
	return out, args.Error(1)
}

func (m *NotificationRepositoryMock) ListPending(ctx context.Context, recipientID int, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID string, recipientID int) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

type JobCardRepositoryMock struct {
	mock.Mock
}

func (m *JobCardRepositoryMock) GetJobCard(ctx context.Context, jobCardID int) (models.JobCard, error) {
	args := m.Called(ctx, jobCardID)
	var card models.JobCard
	if val := args.Get(0); val != nil {
		card = val.(models.JobCard)
	}
	return card, args.Error(1)
}

func (m *JobCardRepositoryMock) Assign(ctx context.Context, req models.AssignmentRequest) (models.JobCard, error) {
	args := m.Called(ctx, req)
	var card models.JobCard
	if val := args.Get(0); val != nil {
		card = val.(models.JobCard)
	}
	return card, args.Error(1)
}

func (m *JobCardRepositoryMock) UpdateStatus(ctx context.Context, jobCardID int, status models.JobStatus) error {
	args := m.Called(ctx, jobCardID, status)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) EmployeeDetails(ctx context.Context, userID int) (models.EmployeeDetails, error) {
	args := m.Called(ctx, userID)
	var d models.EmployeeDetails
	if val := args.Get(0); val != nil {
		d = val.(models.EmployeeDetails)
	}
	return d, args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.JobCardRepository = (*JobCardRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
