package api

import (
	"context"
	"fmt"
	"net/http"

	"workforce-service/internal/models"
)

func (c *Client) JobCardDetails(ctx context.Context, jobCardID int) (models.JobCard, error) {
	var card models.JobCard
	err := c.get(ctx, fmt.Sprintf("/jobcard/%d/details", jobCardID), &card)
	return card, err
}

func (c *Client) EmployeeDetails(ctx context.Context, employeeID int) (models.EmployeeDetails, error) {
	var details models.EmployeeDetails
	err := c.get(ctx, fmt.Sprintf("/employee/%d/details", employeeID), &details)
	return details, err
}

// AssignJobCard submits an assignment. A response with success=false is
// returned as an *Error.
func (c *Client) AssignJobCard(ctx context.Context, req models.AssignmentRequest) (models.AssignResponse, error) {
	var resp models.AssignResponse
	if err := c.do(ctx, http.MethodPost, "/jobcard/assign", req, &resp); err != nil {
		return models.AssignResponse{}, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "assignment rejected"
		}
		return resp, &Error{StatusCode: http.StatusOK, Message: msg}
	}
	return resp, nil
}

func (c *Client) UpdateJobStatus(ctx context.Context, jobCardID int, status models.JobStatus) error {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/jobcard/%d/status", jobCardID), models.StatusUpdateRequest{Status: status}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return &Error{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

func (c *Client) SendNotification(ctx context.Context, req models.SendNotificationRequest) error {
	return c.do(ctx, http.MethodPost, "/notifications/send", req, nil)
}

func (c *Client) PendingNotifications(ctx context.Context) ([]models.Notification, error) {
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := c.get(ctx, "/notifications/pending", &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark-read", models.MarkReadRequest{NotificationID: notificationID}, nil)
}

func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var resp struct {
		Chats []models.Chat `json:"chats"`
	}
	if err := c.get(ctx, "/chats", &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

func (c *Client) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Chat, error) {
	var resp struct {
		Chat models.Chat `json:"chat"`
	}
	err := c.do(ctx, http.MethodPost, "/chats/groups", req, &resp)
	return resp.Chat, err
}

// CreateDirect returns the existing dm with userID or creates one.
func (c *Client) CreateDirect(ctx context.Context, userID int) (models.Chat, error) {
	var resp struct {
		Chat models.Chat `json:"chat"`
	}
	err := c.do(ctx, http.MethodPost, "/chats/dm", map[string]int{"user_id": userID}, &resp)
	return resp.Chat, err
}

func (c *Client) DeleteChat(ctx context.Context, chatID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/chats/%d", chatID), nil, nil)
}

func (c *Client) AddMember(ctx context.Context, chatID, userID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/members", chatID), map[string]int{"user_id": userID}, nil)
}

func (c *Client) RemoveMember(ctx context.Context, chatID, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/chats/%d/members/%d", chatID, userID), nil, nil)
}

func (c *Client) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.get(ctx, fmt.Sprintf("/chats/%d/messages", chatID), &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int, content string) (models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages", chatID), map[string]string{"content": content}, &msg)
	return msg, err
}

func (c *Client) MarkChatRead(ctx context.Context, chatID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/read", chatID), nil, nil)
}
