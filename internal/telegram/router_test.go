package telegram

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
	"github.com/theSp0ty/Weather-bot-tg/internal/store"
	"github.com/theSp0ty/Weather-bot-tg/internal/weather"
)

type fakeBot struct{ sent []tgbotapi.MessageConfig }

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) lastText() string {
	if len(b.sent) == 0 {
		return ""
	}
	return b.sent[len(b.sent)-1].Text
}

func (b *fakeBot) allText() string {
	var parts []string
	for _, m := range b.sent {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

type fakeRepo struct{ sessions map[int64]*domain.Session }

func newFakeRepo() *fakeRepo { return &fakeRepo{sessions: make(map[int64]*domain.Session)} }

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	c.Cities = append([]string(nil), s.Cities...)
	c.Timezones = make(map[string]string, len(s.Timezones))
	for k, v := range s.Timezones {
		c.Timezones[k] = v
	}
	return &c
}

func (r *fakeRepo) GetSession(_ context.Context, chatID int64) (*domain.Session, error) {
	s, ok := r.sessions[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *fakeRepo) SaveSession(_ context.Context, s *domain.Session) error {
	r.sessions[s.ChatID] = cloneSession(s)
	return nil
}

func (r *fakeRepo) ListSessions(context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range r.sessions {
		out = append(out, *cloneSession(s))
	}
	return out, nil
}

func (r *fakeRepo) Close() error { return nil }

type fakeProvider struct {
	tz    string
	tzErr error

	obs    weather.Observation
	obsErr error

	samples []weather.Sample
	fErr    error
}

func (p *fakeProvider) Current(context.Context, string) (weather.Observation, error) {
	return p.obs, p.obsErr
}

func (p *fakeProvider) Forecast(context.Context, string) ([]weather.Sample, error) {
	return p.samples, p.fErr
}

func (p *fakeProvider) TimezoneFor(context.Context, string) (string, error) {
	return p.tz, p.tzErr
}

type upsertCall struct {
	chatID       int64
	hour, minute int
	tz           string
}

type fakeNotifier struct {
	upserts []upsertCall
	cancels []int64
}

func (n *fakeNotifier) Upsert(chatID int64, hour, minute int, tz string) error {
	n.upserts = append(n.upserts, upsertCall{chatID, hour, minute, tz})
	return nil
}

func (n *fakeNotifier) Cancel(chatID int64) { n.cancels = append(n.cancels, chatID) }

func newTestRouter() (*Router, *fakeBot, *fakeRepo, *fakeProvider, *fakeNotifier) {
	bot := &fakeBot{}
	repo := newFakeRepo()
	provider := &fakeProvider{tz: "Europe/Moscow", obs: weather.Observation{Description: "ясно", TempC: 20}}
	notifier := &fakeNotifier{}
	r := NewRouter(bot, zap.NewNop(), repo, provider)
	r.SetNotifier(notifier)
	return r, bot, repo, provider, notifier
}

func send(r *Router, chatID int64, text string) {
	r.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	})
}

func TestAddCityFlow_ThroughTimeSelection(t *testing.T) {
	r, bot, repo, _, notifier := newTestRouter()

	send(r, 1, btnAddCity)
	assert.Equal(t, textAskCityAdd, bot.lastText())

	send(r, 1, "moscow")
	assert.Contains(t, bot.allText(), "✅ Город Moscow добавлен! Часовой пояс: Europe/Moscow.")

	sess := repo.sessions[1]
	require.NotNil(t, sess)
	assert.Equal(t, []string{"Moscow"}, sess.Cities)
	assert.Equal(t, domain.StateSelectNotifyCity, sess.State)

	send(r, 1, "Moscow")
	assert.Equal(t, domain.StateSelectTime, repo.sessions[1].State)
	assert.Equal(t, "Moscow", repo.sessions[1].NotifyCity)

	send(r, 1, "09:00")
	sess = repo.sessions[1]
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Equal(t, "09:00", sess.SendTime)
	require.Len(t, notifier.upserts, 1)
	assert.Equal(t, upsertCall{1, 9, 0, "Europe/Moscow"}, notifier.upserts[0])
}

func TestAddCity_Duplicate(t *testing.T) {
	r, bot, repo, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, btnAddCity)
	send(r, 1, "Moscow")

	assert.Contains(t, bot.lastText(), "уже есть в вашем списке")
	sess := repo.sessions[1]
	assert.Equal(t, []string{"Moscow"}, sess.Cities)
	assert.Equal(t, domain.StateIdle, sess.State)
}

func TestAddCity_TimezoneLookupFailsSoft(t *testing.T) {
	r, bot, repo, provider, _ := newTestRouter()
	provider.tzErr = weather.ErrLookupFailed

	send(r, 1, btnAddCity)
	send(r, 1, "atlantis")

	assert.Contains(t, bot.allText(), "Часовой пояс: не найден")
	sess := repo.sessions[1]
	assert.Equal(t, []string{"Atlantis"}, sess.Cities)
	assert.Equal(t, domain.TZUnknown, sess.TimezoneOf("Atlantis"))
}

func TestRemoveCity_NotFound(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, btnRemoveCity)
	send(r, 1, "London")

	assert.Contains(t, bot.lastText(), "Город London не найден")
}

func TestRemoveNotifyCity_CancelsTrigger(t *testing.T) {
	r, _, repo, _, notifier := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, "Moscow")
	send(r, 1, "09:00")

	send(r, 1, btnRemoveCity)
	send(r, 1, "moscow")

	sess := repo.sessions[1]
	assert.Empty(t, sess.Cities)
	assert.Empty(t, sess.NotifyCity, "notify city must never dangle after removal")
	assert.Equal(t, []int64{1}, notifier.cancels)
}

func TestCustomTime_RepromptOnBadFormat(t *testing.T) {
	r, bot, repo, _, notifier := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, "Moscow")
	send(r, 1, sentinelCustomTime)
	assert.Equal(t, domain.StateCustomTime, repo.sessions[1].State)

	send(r, 1, "9am")
	assert.Equal(t, textBadTime, bot.lastText())
	assert.Equal(t, domain.StateCustomTime, repo.sessions[1].State)
	assert.Empty(t, notifier.upserts)

	send(r, 1, "23:45")
	assert.Equal(t, domain.StateIdle, repo.sessions[1].State)
	require.Len(t, notifier.upserts, 1)
	assert.Equal(t, upsertCall{1, 23, 45, "Europe/Moscow"}, notifier.upserts[0])
}

func TestNotifyCitySelection_UnknownCityReprompts(t *testing.T) {
	r, bot, repo, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, "Narnia")

	assert.Equal(t, textAskNotifyCity, bot.lastText())
	assert.Equal(t, domain.StateSelectNotifyCity, repo.sessions[1].State)
}

func TestNotifyCitySelection_AddAnotherSentinel(t *testing.T) {
	r, _, repo, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, sentinelAddAnother)

	assert.Equal(t, domain.StateAddCity, repo.sessions[1].State)
}

func TestStopNotifications_KeepsCities(t *testing.T) {
	r, _, repo, _, notifier := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, "Moscow")
	send(r, 1, "09:00")
	send(r, 1, btnStopNotify)

	sess := repo.sessions[1]
	assert.Equal(t, []string{"Moscow"}, sess.Cities)
	assert.Empty(t, sess.NotifyCity)
	assert.Empty(t, sess.SendTime)
	assert.Equal(t, []int64{1}, notifier.cancels)
}

func TestHomeButton_ResetsAnyState(t *testing.T) {
	r, _, repo, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	assert.Equal(t, domain.StateAddCity, repo.sessions[1].State)

	send(r, 1, btnHome)
	assert.Equal(t, domain.StateIdle, repo.sessions[1].State)
}

func TestShowWeather_SingleCity(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, btnHome)
	send(r, 1, btnShowWeather)

	assert.Contains(t, bot.lastText(), "Погода в Moscow: ясно, 20°C.")
}

func TestShowWeather_NoCities(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()
	send(r, 1, btnShowWeather)
	assert.Equal(t, textNoCities, bot.lastText())
}

func TestShowWeather_MultipleCitiesAsksForSelection(t *testing.T) {
	r, bot, repo, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, sentinelAddAnother)
	send(r, 1, "london")
	send(r, 1, btnHome)
	send(r, 1, btnShowWeather)

	assert.Equal(t, textAskForecastCity, bot.lastText())
	assert.Equal(t, domain.StateForecastCity, repo.sessions[1].State)

	send(r, 1, "london")
	assert.Contains(t, bot.lastText(), "Погода в London")
	assert.Equal(t, domain.StateIdle, repo.sessions[1].State)
}

func TestShowWeather_LookupUnavailable(t *testing.T) {
	r, bot, _, provider, _ := newTestRouter()
	provider.obsErr = weather.ErrLookupFailed

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, btnHome)
	send(r, 1, btnShowWeather)

	assert.Contains(t, bot.lastText(), "Не удалось получить погоду для Moscow.")
}

func TestDeliverDaily_SendsSummary(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()

	send(r, 1, btnAddCity)
	send(r, 1, "moscow")
	send(r, 1, "Moscow")
	send(r, 1, "09:00")
	bot.sent = nil

	r.DeliverDaily(context.Background(), 1)
	require.NotEmpty(t, bot.sent)
	assert.Contains(t, bot.lastText(), "Погода в Moscow: ясно, 20°C.")
	assert.Contains(t, bot.lastText(), "Без дождя в течение дня.")
}

func TestDeliverDaily_NotConfiguredIsSilent(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()

	send(r, 1, "/start")
	bot.sent = nil

	r.DeliverDaily(context.Background(), 1)
	assert.Empty(t, bot.sent)
}

func TestStart_NudgesWhenNoTimeSet(t *testing.T) {
	r, bot, _, _, _ := newTestRouter()
	send(r, 1, "/start")
	assert.Contains(t, bot.lastText(), "установите время")
}
