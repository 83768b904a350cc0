package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
)

// Deliverer sends the daily forecast to a chat. telegram.Router
// implements this; delivery failures stay inside the deliverer and the
// trigger keeps firing on schedule.
type Deliverer interface {
	DeliverDaily(ctx context.Context, chatID int64)
}

// Scheduler keeps at most one daily timezone-aware trigger per chat on
// top of gocron.
type Scheduler struct {
	sched     gocron.Scheduler
	log       *zap.Logger
	deliverer Deliverer
	defaultTZ string

	mu   sync.Mutex
	jobs map[int64]gocron.Job
}

// New creates a Scheduler. defaultTZ is used for chats whose notify
// city has no resolved timezone.
func New(log *zap.Logger, deliverer Deliverer, defaultTZ string) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{
		sched:     s,
		log:       log,
		deliverer: deliverer,
		defaultTZ: defaultTZ,
		jobs:      make(map[int64]gocron.Job),
	}, nil
}

// Start begins dispatching jobs.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop shuts the underlying scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

// resolveTZ maps an absent or unresolved timezone to the configured
// default and rejects names the tzdata does not know.
func (s *Scheduler) resolveTZ(tz string) string {
	if tz == "" || tz == domain.TZUnknown {
		return s.defaultTZ
	}
	if _, err := time.LoadLocation(tz); err != nil {
		s.log.Warn("unknown timezone, using default",
			zap.String("tz", tz), zap.String("default", s.defaultTZ))
		return s.defaultTZ
	}
	return tz
}

// Upsert installs the daily trigger for a chat, replacing any existing
// one. The old job is removed before the new one is created, so a
// replaced firing time can never execute after Upsert returns.
func (s *Scheduler) Upsert(chatID int64, hour, minute int, tz string) error {
	if err := domain.ValidateClock(hour, minute); err != nil {
		return err
	}
	tz = s.resolveTZ(tz)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[chatID]; ok {
		if err := s.sched.RemoveJob(old.ID()); err != nil {
			s.log.Warn("remove old trigger failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
		delete(s.jobs, chatID)
	}

	spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", tz, minute, hour)
	job, err := s.sched.NewJob(
		gocron.CronJob(spec, false),
		gocron.NewTask(s.fire, chatID),
		gocron.WithName(fmt.Sprintf("daily-forecast-%d", chatID)),
	)
	if err != nil {
		return fmt.Errorf("schedule trigger for chat %d: %w", chatID, err)
	}
	s.jobs[chatID] = job

	s.log.Info("daily trigger installed",
		zap.Int64("chatID", chatID),
		zap.String("time", domain.FormatClock(hour, minute)),
		zap.String("tz", tz),
	)
	return nil
}

// Cancel removes the chat's trigger. Missing trigger is not an error.
func (s *Scheduler) Cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[chatID]
	if !ok {
		return
	}
	if err := s.sched.RemoveJob(job.ID()); err != nil {
		s.log.Warn("remove trigger failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
	delete(s.jobs, chatID)
	s.log.Info("daily trigger cancelled", zap.Int64("chatID", chatID))
}

// Rehydrate rebuilds triggers from persisted sessions. Called exactly
// once at startup, before Start.
func (s *Scheduler) Rehydrate(sessions []domain.Session) {
	for i := range sessions {
		sess := &sessions[i]
		if !sess.NotificationConfigured() {
			continue
		}
		hour, minute, err := domain.ParseSendTime(sess.SendTime)
		if err != nil {
			s.log.Warn("skipping session with bad stored time",
				zap.Int64("chatID", sess.ChatID), zap.String("sendTime", sess.SendTime))
			continue
		}
		if err := s.Upsert(sess.ChatID, hour, minute, sess.TimezoneOf(sess.NotifyCity)); err != nil {
			s.log.Error("rehydrate trigger failed", zap.Int64("chatID", sess.ChatID), zap.Error(err))
		}
	}
	s.log.Info("triggers rehydrated", zap.Int("count", len(s.jobs)))
}

// Active reports whether a trigger currently exists for the chat.
func (s *Scheduler) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

// Count returns the number of active triggers.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// fire runs on the job's schedule. Delivery errors are the deliverer's
// to log; the trigger stays installed and retries next occurrence.
func (s *Scheduler) fire(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.deliverer.DeliverDaily(ctx, chatID)
}
