package store

import (
	"context"
	"errors"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
)

// ErrNotFound is returned by GetSession for an unknown chat.
var ErrNotFound = errors.New("session not found")

// Repo defines storage operations for chat sessions.
type Repo interface {
	GetSession(ctx context.Context, chatID int64) (*domain.Session, error)
	SaveSession(ctx context.Context, s *domain.Session) error
	ListSessions(ctx context.Context) ([]domain.Session, error)
	Close() error
}
