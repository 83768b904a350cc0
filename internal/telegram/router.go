package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
	"github.com/theSp0ty/Weather-bot-tg/internal/store"
	"github.com/theSp0ty/Weather-bot-tg/internal/weather"
)

// BotAPI is the slice of the Telegram client the router needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier manages per-chat daily triggers. scheduler.Scheduler
// implements it.
type Notifier interface {
	Upsert(chatID int64, hour, minute int, tz string) error
	Cancel(chatID int64)
}

// Router interprets inbound messages according to each chat's
// conversation state and drives session mutations.
type Router struct {
	bot      BotAPI
	log      *zap.Logger
	repo     store.Repo
	provider weather.Provider
	notifier Notifier

	// Per-chat locks serialize events for one chat while chats proceed
	// concurrently.
	lmu   sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewRouter creates a Router. The notifier is injected separately to
// break the construction cycle with the scheduler.
func NewRouter(bot BotAPI, log *zap.Logger, repo store.Repo, provider weather.Provider) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		provider: provider,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// SetNotifier injects the trigger manager.
func (r *Router) SetNotifier(n Notifier) { r.notifier = n }

func (r *Router) chatLock(chatID int64) *sync.Mutex {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	mu, ok := r.locks[chatID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[chatID] = mu
	}
	return mu
}

// HandleUpdate processes one update to completion. Safe to call
// concurrently; events for the same chat are serialized.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		return
	}

	mu := r.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	r.handleMessage(ctx, chatID, text)
}

// ensureSession loads the chat's session, creating an idle one on first
// contact.
func (r *Router) ensureSession(ctx context.Context, chatID int64) (*domain.Session, error) {
	s, err := r.repo.GetSession(ctx, chatID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	s = domain.NewSession(chatID)
	if err := r.repo.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// save persists the session; every mutation is saved before the
// confirmation reply goes out.
func (r *Router) save(ctx context.Context, s *domain.Session) bool {
	if err := r.repo.SaveSession(ctx, s); err != nil {
		r.log.Error("save session failed", zap.Int64("chatID", s.ChatID), zap.Error(err))
		r.sendText(s.ChatID, textStorageError)
		return false
	}
	return true
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
