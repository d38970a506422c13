package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

const (
	MaxMessageLength = 16000
	DefaultPageSize  = 50
	MaxPageSize      = 100
)

// MessagePage is one newest-first slice of a room's history.
// NextCursor is empty unless HasMore is true.
type MessagePage struct {
	Messages   []models.ChatMessage
	NextCursor string
	HasMore    bool
}

// JobClosedHook is what the job lifecycle calls once a job reaches "closed".
type JobClosedHook interface {
	ApplyJobClosed(ctx context.Context, jobID int64) error
}

type ChatService interface {
	JobClosedHook

	GetOrCreateRoomForJob(ctx context.Context, job *models.Job) (*models.ChatRoom, error)
	GetRoomForJob(ctx context.Context, jobID int64, identity models.Identity) (*models.ChatRoom, error)
	IsParticipant(ctx context.Context, roomID int64, identity models.Identity) (bool, error)
	ListMessages(ctx context.Context, roomID int64, identity models.Identity, cursor string, limit int) (*MessagePage, error)
	AppendMessage(ctx context.Context, roomID int64, identity models.Identity, content string) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, messageID int64, identity models.Identity) error
	UnreadCount(ctx context.Context, roomID int64, identity models.Identity) (int64, error)
}

type chatService struct {
	roomRepo        repository.ChatRoomRepository
	messageRepo     repository.ChatMessageRepository
	readRepo        repository.MessageReadRepository
	jobRepo         repository.JobRepository
	defaultPageSize int
	logger          *slog.Logger
}

func NewChatService(
	roomRepo repository.ChatRoomRepository,
	messageRepo repository.ChatMessageRepository,
	readRepo repository.MessageReadRepository,
	jobRepo repository.JobRepository,
	defaultPageSize int,
	logger *slog.Logger,
) ChatService {
	if defaultPageSize < 1 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		roomRepo:        roomRepo,
		messageRepo:     messageRepo,
		readRepo:        readRepo,
		jobRepo:         jobRepo,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// GetOrCreateRoomForJob returns the job's room, creating it with the owner and the
// assigned crew as participants on first access. Losing a creation race is not an
// error: the winner's room is returned.
func (s *chatService) GetOrCreateRoomForJob(ctx context.Context, job *models.Job) (*models.ChatRoom, error) {
	if job == nil || !job.IsAssigned() {
		return nil, ErrChatUnavailable
	}

	room, err := s.roomRepo.GetByJobID(ctx, job.ID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load chat room: %w", err)
	}

	owner := models.OwnerIdentity(job.OwnerID)
	crew := models.CrewIdentity(*job.AssignedCrewID)
	room, err = s.roomRepo.CreateForJob(ctx, job.ID, owner, crew)
	switch {
	case err == nil:
		s.logger.Info("chat_room_created", "job_id", job.ID, "room_id", room.ID)
		return room, nil
	case errors.Is(err, repository.ErrRoomExists):
		s.logger.Debug("chat_room_create_race_lost", "job_id", job.ID)
		room, err = s.roomRepo.GetByJobID(ctx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("load chat room after conflict: %w", err)
		}
		return room, nil
	default:
		return nil, err
	}
}

func (s *chatService) GetRoomForJob(ctx context.Context, jobID int64, identity models.Identity) (*models.ChatRoom, error) {
	if !identity.Valid() {
		return nil, ErrUnauthorized
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	room, err := s.GetOrCreateRoomForJob(ctx, job)
	if err != nil {
		return nil, err
	}

	ok, err := s.roomRepo.IsParticipant(ctx, room.ID, identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		if identity.Kind() == models.ParticipantCrew && job.IsAssigned() && *job.AssignedCrewID == identity.ID() {
			// reassigned after the room was created; membership is not migrated
			s.logger.Warn("chat_crew_reassigned", "job_id", jobID, "room_id", room.ID, "crew_id", identity.ID())
		}
		return nil, ErrForbidden
	}
	return room, nil
}

// ApplyJobClosed latches the job's room read-only. Jobs without a room are ignored.
func (s *chatService) ApplyJobClosed(ctx context.Context, jobID int64) error {
	found, err := s.roomRepo.MarkReadOnly(ctx, jobID)
	if err != nil {
		return fmt.Errorf("close chat room: %w", err)
	}
	if found {
		s.logger.Info("chat_room_read_only", "job_id", jobID)
	}
	return nil
}

func (s *chatService) IsParticipant(ctx context.Context, roomID int64, identity models.Identity) (bool, error) {
	if !identity.Valid() {
		return false, ErrUnauthorized
	}
	return s.roomRepo.IsParticipant(ctx, roomID, identity)
}

// ListMessages pages newest first. An unusable cursor is treated as absent.
func (s *chatService) ListMessages(ctx context.Context, roomID int64, identity models.Identity, cursor string, limit int) (*MessagePage, error) {
	if err := s.authorize(ctx, roomID, identity); err != nil {
		return nil, err
	}

	limit = s.clampLimit(limit)
	messages, err := s.messageRepo.ListBefore(ctx, roomID, parseCursor(cursor), limit+1)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Messages: messages}
	if len(messages) > limit {
		page.Messages = messages[:limit]
		page.HasMore = true
		page.NextCursor = strconv.FormatInt(page.Messages[limit-1].ID, 10)
	}
	return page, nil
}

func (s *chatService) AppendMessage(ctx context.Context, roomID int64, identity models.Identity, content string) (*models.ChatMessage, error) {
	if !identity.Valid() {
		return nil, ErrUnauthorized
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load chat room: %w", err)
	}
	if room.IsReadOnly {
		return nil, ErrRoomReadOnly
	}
	if err := s.authorize(ctx, roomID, identity); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrInvalidContent
	}

	message := models.NewMessage(roomID, identity, content)
	if err := s.messageRepo.Create(ctx, &message); err != nil {
		return nil, err
	}
	s.logger.Debug("chat_message_appended", "room_id", roomID, "message_id", message.ID, "sender", identity.String())
	return &message, nil
}

// MarkRead is idempotent; the first read time wins.
func (s *chatService) MarkRead(ctx context.Context, roomID, messageID int64, identity models.Identity) error {
	participant, err := s.participant(ctx, roomID, identity)
	if err != nil {
		return err
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("load chat message: %w", err)
	}
	if message.ChatRoomID != roomID {
		return ErrMessageNotFound
	}

	_, err = s.readRepo.MarkRead(ctx, messageID, participant.ID)
	return err
}

func (s *chatService) UnreadCount(ctx context.Context, roomID int64, identity models.Identity) (int64, error) {
	participant, err := s.participant(ctx, roomID, identity)
	if err != nil {
		return 0, err
	}
	return s.readRepo.CountUnread(ctx, roomID, participant)
}

func (s *chatService) authorize(ctx context.Context, roomID int64, identity models.Identity) error {
	ok, err := s.IsParticipant(ctx, roomID, identity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *chatService) participant(ctx context.Context, roomID int64, identity models.Identity) (*models.ChatParticipant, error) {
	if !identity.Valid() {
		return nil, ErrUnauthorized
	}
	participant, err := s.roomRepo.GetParticipant(ctx, roomID, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load chat participant: %w", err)
	}
	return participant, nil
}

func (s *chatService) clampLimit(limit int) int {
	switch {
	case limit == 0:
		return s.defaultPageSize
	case limit < 1:
		return 1
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func parseCursor(cursor string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(cursor), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
