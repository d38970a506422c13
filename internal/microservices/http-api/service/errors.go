package service

import "errors"

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUnauthorized    = errors.New("identity required")
	ErrForbidden       = errors.New("not a participant of this chat")
	ErrNotJobOwner     = errors.New("only the task owner can change this job")
	ErrChatUnavailable = errors.New("chat is not available until a crew is assigned")
	ErrRoomReadOnly    = errors.New("chat room is read-only")
	ErrInvalidContent  = errors.New("message content must be 1-16000 characters")
	ErrInvalidStatus   = errors.New("invalid job status")
	ErrInvalidCrew     = errors.New("crew id must be positive")
)
