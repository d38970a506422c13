package dto

import (
	"time"

	"jobchat/internal/microservices/http-api/models"
)

// SendMessageDTO is the body of POST /chat/rooms/:room_id/messages.
// A missing or empty content fails binding; trimming and the 16000 char
// limit are enforced by the chat service.
type SendMessageDTO struct {
	Content string `json:"content" binding:"required"`
}

type ChatRoomResponse struct {
	ID         int64     `json:"id"`
	JobID      int64     `json:"job_id"`
	IsReadOnly bool      `json:"is_read_only"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModelToChatRoomResponse(room *models.ChatRoom) *ChatRoomResponse {
	return &ChatRoomResponse{
		ID:         room.ID,
		JobID:      room.JobID,
		IsReadOnly: room.IsReadOnly,
		CreatedAt:  room.CreatedAt,
	}
}

type ChatMessageResponse struct {
	ID                int64                  `json:"id"`
	ChatRoomID        int64                  `json:"chat_room_id"`
	SenderType        models.ParticipantType `json:"sender_type"`
	SenderOwnerUserID *int64                 `json:"sender_owner_user_id"`
	SenderCrewID      *int64                 `json:"sender_crew_id"`
	Content           string                 `json:"content"`
	CreatedAt         time.Time              `json:"created_at"`
}

func FromModelToChatMessageResponse(message *models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:                message.ID,
		ChatRoomID:        message.ChatRoomID,
		SenderType:        message.SenderType,
		SenderOwnerUserID: message.SenderOwnerUserID,
		SenderCrewID:      message.SenderCrewID,
		Content:           message.Content,
		CreatedAt:         message.CreatedAt,
	}
}

// ChatMessagesPage is newest first; next_cursor is null on the last page.
type ChatMessagesPage struct {
	Messages   []ChatMessageResponse `json:"messages"`
	NextCursor *string               `json:"next_cursor"`
	HasMore    bool                  `json:"has_more"`
}

func NewChatMessagesPage(messages []models.ChatMessage, nextCursor string, hasMore bool) *ChatMessagesPage {
	page := &ChatMessagesPage{
		Messages: make([]ChatMessageResponse, 0, len(messages)),
		HasMore:  hasMore,
	}
	for i := range messages {
		page.Messages = append(page.Messages, FromModelToChatMessageResponse(&messages[i]))
	}
	if hasMore && nextCursor != "" {
		page.NextCursor = &nextCursor
	}
	return page
}

type UnreadCountResponse struct {
	ChatRoomID  int64 `json:"chat_room_id"`
	UnreadCount int64 `json:"unread_count"`
}
