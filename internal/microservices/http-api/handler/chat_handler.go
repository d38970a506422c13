package handler

import (
	"net/http"
	"strconv"

	"jobchat/internal/microservices/http-api/dto"
	"jobchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// RegisterRoutes registers chat routes. sendGuards run only in front of message posting.
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup, sendGuards ...gin.HandlerFunc) {
	chat := router.Group("/chat")
	{
		chat.GET("/jobs/:job_id/room", h.GetRoom)

		rooms := chat.Group("/rooms/:room_id")
		rooms.GET("/messages", h.ListMessages)
		rooms.POST("/messages", append(sendGuards, h.SendMessage)...)
		rooms.POST("/messages/:message_id/read", h.MarkRead)
		rooms.GET("/unread", h.UnreadCount)
	}
}

// GetRoom returns the job's chat room, creating it on first access
// GET /api/v1/chat/jobs/:job_id/room
func (h *ChatHandler) GetRoom(c *gin.Context) {
	jobID, ok := parseIDParam(c, "job_id", "job")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	room, err := h.chatService.GetRoomForJob(c.Request.Context(), jobID, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToChatRoomResponse(room))
}

// ListMessages returns one page of history, newest first
// GET /api/v1/chat/rooms/:room_id/messages?cursor=&limit=
func (h *ChatHandler) ListMessages(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room_id", "room")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	// an absent or malformed limit falls back to the default page size
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.chatService.ListMessages(c.Request.Context(), roomID, identity, c.Query("cursor"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewChatMessagesPage(page.Messages, page.NextCursor, page.HasMore))
}

// SendMessage appends a message as the caller
// POST /api/v1/chat/rooms/:room_id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room_id", "room")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req dto.SendMessageDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chatService.AppendMessage(c.Request.Context(), roomID, identity, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromModelToChatMessageResponse(message))
}

// MarkRead records that the caller has seen a message
// POST /api/v1/chat/rooms/:room_id/messages/:message_id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room_id", "room")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id", "message")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), roomID, messageID, identity); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UnreadCount
// GET /api/v1/chat/rooms/:room_id/unread
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room_id", "room")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	count, err := h.chatService.UnreadCount(c.Request.Context(), roomID, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{ChatRoomID: roomID, UnreadCount: count})
}
