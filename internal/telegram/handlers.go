package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
	"github.com/theSp0ty/Weather-bot-tg/internal/weather"
)

const (
	tzLookupTimeout = 5 * time.Second
	forecastTimeout = 10 * time.Second
)

// handleMessage runs one conversation turn for a chat. Menu buttons are
// honored in any state; everything else is interpreted by the current
// state.
func (r *Router) handleMessage(ctx context.Context, chatID int64, text string) {
	sess, err := r.ensureSession(ctx, chatID)
	if err != nil {
		r.log.Error("ensure session failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, textStorageError)
		return
	}

	// Buttons reachable from any state. Entering a mode replaces the
	// previous one wholesale: State is a single value, two pending
	// modes cannot coexist.
	switch text {
	case "/start":
		r.handleStart(ctx, sess)
		return
	case btnHome, "/cancel":
		r.toIdle(ctx, sess, textMenuHint)
		return
	case btnAddCity:
		sess.State = domain.StateAddCity
		if r.save(ctx, sess) {
			r.sendText(chatID, textAskCityAdd)
		}
		return
	case btnRemoveCity:
		r.handleRemoveCityButton(ctx, sess)
		return
	case btnShowWeather:
		r.handleShowWeatherButton(ctx, sess)
		return
	case btnSetTime:
		r.handleSetTimeButton(ctx, sess)
		return
	case btnStopNotify:
		r.handleStopNotify(ctx, sess)
		return
	}

	switch sess.State {
	case domain.StateAddCity:
		r.handleAddCityInput(ctx, sess, text)
	case domain.StateRemoveCity:
		r.handleRemoveCityInput(ctx, sess, text)
	case domain.StateSelectNotifyCity:
		r.handleNotifyCityInput(ctx, sess, text)
	case domain.StateSelectTime:
		r.handleTimeInput(ctx, sess, text)
	case domain.StateCustomTime:
		r.handleCustomTimeInput(ctx, sess, text)
	case domain.StateForecastCity:
		r.handleForecastCityInput(ctx, sess, text)
	default:
		r.sendWithKeyboard(chatID, textMenuHint, mainMenuKeyboard())
	}
}

func (r *Router) handleStart(ctx context.Context, sess *domain.Session) {
	sess.State = domain.StateIdle
	if !r.save(ctx, sess) {
		return
	}
	text := textStart
	if sess.SendTime == "" {
		text += textStartNoTime
	}
	r.sendWithKeyboard(sess.ChatID, text, mainMenuKeyboard())
}

// toIdle resets the conversation and shows the main menu.
func (r *Router) toIdle(ctx context.Context, sess *domain.Session, text string) {
	sess.State = domain.StateIdle
	if r.save(ctx, sess) {
		r.sendWithKeyboard(sess.ChatID, text, mainMenuKeyboard())
	}
}

// --- add city ---

func (r *Router) handleAddCityInput(ctx context.Context, sess *domain.Session, text string) {
	city, err := sess.AddCity(text)
	if errors.Is(err, domain.ErrDuplicateCity) {
		sess.State = domain.StateIdle
		if r.save(ctx, sess) {
			r.sendWithKeyboard(sess.ChatID, "⚠️ Город "+city+" уже есть в вашем списке.", mainMenuKeyboard())
		}
		return
	}
	if err != nil {
		r.sendText(sess.ChatID, textAskCityAdd)
		return
	}

	// Timezone lookup is best effort: a failed lookup stores "unknown"
	// and never blocks the add.
	tzCtx, cancel := context.WithTimeout(ctx, tzLookupTimeout)
	tz, err := r.provider.TimezoneFor(tzCtx, city)
	cancel()
	if err != nil {
		r.log.Warn("timezone lookup failed", zap.String("city", city), zap.Error(err))
		tz = domain.TZUnknown
	}
	sess.SetTimezone(city, tz)
	sess.State = domain.StateSelectNotifyCity
	if !r.save(ctx, sess) {
		return
	}

	tzText := tz
	if tz == domain.TZUnknown {
		tzText = "не найден"
	}
	r.sendText(sess.ChatID, "✅ Город "+city+" добавлен! Часовой пояс: "+tzText+".")
	r.sendWithKeyboard(sess.ChatID, textAskNotifyCity, citiesKeyboard(sess.Cities, sentinelAddAnother))
}

// --- remove city ---

func (r *Router) handleRemoveCityButton(ctx context.Context, sess *domain.Session) {
	if len(sess.Cities) == 0 {
		r.toIdle(ctx, sess, textNoCitiesToRemove)
		return
	}
	sess.State = domain.StateRemoveCity
	if r.save(ctx, sess) {
		r.sendText(sess.ChatID, "Ваши города: "+strings.Join(sess.Cities, ", ")+"\n"+textAskCityRemove)
	}
}

func (r *Router) handleRemoveCityInput(ctx context.Context, sess *domain.Session, text string) {
	city, cancelNotify, err := sess.RemoveCity(text)
	sess.State = domain.StateIdle
	if errors.Is(err, domain.ErrCityNotFound) {
		if r.save(ctx, sess) {
			r.sendWithKeyboard(sess.ChatID, "Город "+city+" не найден в вашем списке.", mainMenuKeyboard())
		}
		return
	}
	if !r.save(ctx, sess) {
		return
	}
	if cancelNotify && r.notifier != nil {
		r.notifier.Cancel(sess.ChatID)
	}
	reply := "Город " + city + " удалён."
	if cancelNotify {
		reply += " Ежедневный прогноз для него отключён."
	}
	r.sendWithKeyboard(sess.ChatID, reply, mainMenuKeyboard())
}

// --- notification setup ---

func (r *Router) handleSetTimeButton(ctx context.Context, sess *domain.Session) {
	if len(sess.Cities) == 0 {
		r.toIdle(ctx, sess, textNoCities)
		return
	}
	sess.State = domain.StateSelectNotifyCity
	if r.save(ctx, sess) {
		r.sendWithKeyboard(sess.ChatID, textAskNotifyCity, citiesKeyboard(sess.Cities, sentinelAddAnother))
	}
}

func (r *Router) handleNotifyCityInput(ctx context.Context, sess *domain.Session, text string) {
	if text == sentinelAddAnother {
		sess.State = domain.StateAddCity
		if r.save(ctx, sess) {
			r.sendText(sess.ChatID, textAskCityAdd)
		}
		return
	}
	city, ok := r.canonicalCity(sess, text)
	if !ok {
		r.sendWithKeyboard(sess.ChatID, textAskNotifyCity, citiesKeyboard(sess.Cities, sentinelAddAnother))
		return
	}
	sess.NotifyCity = city
	sess.State = domain.StateSelectTime
	if r.save(ctx, sess) {
		r.sendWithKeyboard(sess.ChatID, textAskTime, timePresetsKeyboard())
	}
}

func (r *Router) handleTimeInput(ctx context.Context, sess *domain.Session, text string) {
	if text == sentinelCustomTime {
		sess.State = domain.StateCustomTime
		if r.save(ctx, sess) {
			r.sendText(sess.ChatID, textAskCustomTime)
		}
		return
	}
	hour, minute, err := domain.ParseSendTime(text)
	if err != nil {
		r.sendWithKeyboard(sess.ChatID, textAskTime, timePresetsKeyboard())
		return
	}
	r.setSendTime(ctx, sess, hour, minute)
}

func (r *Router) handleCustomTimeInput(ctx context.Context, sess *domain.Session, text string) {
	hour, minute, err := domain.ParseSendTime(text)
	if err != nil {
		// Re-prompt, state unchanged.
		r.sendText(sess.ChatID, textBadTime)
		return
	}
	r.setSendTime(ctx, sess, hour, minute)
}

// setSendTime records the chosen time, persists, then installs the
// trigger. Save precedes both the trigger upsert and the confirmation.
func (r *Router) setSendTime(ctx context.Context, sess *domain.Session, hour, minute int) {
	if sess.NotifyCity == "" {
		// Time selection is only reachable after a city was chosen;
		// recover by restarting the selection.
		r.handleSetTimeButton(ctx, sess)
		return
	}
	sess.SendTime = domain.FormatClock(hour, minute)
	sess.State = domain.StateIdle
	if !r.save(ctx, sess) {
		return
	}
	if r.notifier != nil {
		if err := r.notifier.Upsert(sess.ChatID, hour, minute, sess.TimezoneOf(sess.NotifyCity)); err != nil {
			r.log.Error("trigger upsert failed", zap.Int64("chatID", sess.ChatID), zap.Error(err))
			r.sendWithKeyboard(sess.ChatID, textStorageError, mainMenuKeyboard())
			return
		}
	}
	r.sendWithKeyboard(sess.ChatID,
		"Время "+sess.SendTime+" сохранено! Прогноз для города "+sess.NotifyCity+" будет приходить автоматически.",
		mainMenuKeyboard())
}

func (r *Router) handleStopNotify(ctx context.Context, sess *domain.Session) {
	sess.NotifyCity = ""
	sess.SendTime = ""
	sess.State = domain.StateIdle
	if !r.save(ctx, sess) {
		return
	}
	if r.notifier != nil {
		r.notifier.Cancel(sess.ChatID)
	}
	r.sendWithKeyboard(sess.ChatID, textNotifyStopped, mainMenuKeyboard())
}

// --- on-demand forecast ---

func (r *Router) handleShowWeatherButton(ctx context.Context, sess *domain.Session) {
	if len(sess.Cities) == 0 {
		r.toIdle(ctx, sess, textNoCities)
		return
	}
	if len(sess.Cities) == 1 {
		city := sess.Cities[0]
		sess.State = domain.StateIdle
		if r.save(ctx, sess) {
			r.sendWeather(ctx, sess, []string{city})
		}
		return
	}
	sess.State = domain.StateForecastCity
	if r.save(ctx, sess) {
		r.sendWithKeyboard(sess.ChatID, textAskForecastCity, citiesKeyboard(sess.Cities, sentinelAllCities))
	}
}

func (r *Router) handleForecastCityInput(ctx context.Context, sess *domain.Session, text string) {
	if text == sentinelAllCities {
		cities := sess.Cities
		sess.State = domain.StateIdle
		if r.save(ctx, sess) {
			r.sendWeather(ctx, sess, cities)
		}
		return
	}
	city, ok := r.canonicalCity(sess, text)
	if !ok {
		r.sendWithKeyboard(sess.ChatID, textAskForecastCity, citiesKeyboard(sess.Cities, sentinelAllCities))
		return
	}
	sess.State = domain.StateIdle
	if r.save(ctx, sess) {
		r.sendWeather(ctx, sess, []string{city})
	}
}

// sendWeather replies with current weather for the given cities plus a
// wish line. Lookup failures degrade per city.
func (r *Router) sendWeather(ctx context.Context, sess *domain.Session, cities []string) {
	wCtx, cancel := context.WithTimeout(ctx, forecastTimeout)
	defer cancel()

	lines := make([]string, 0, len(cities)+1)
	for _, city := range cities {
		obs, err := r.provider.Current(wCtx, city)
		if err != nil {
			r.log.Warn("current weather failed", zap.String("city", city), zap.Error(err))
			lines = append(lines, weather.RenderUnavailable(city))
			continue
		}
		lines = append(lines, weather.RenderCurrent(city, obs))
	}
	lines = append(lines, randomWish())
	r.sendWithKeyboard(sess.ChatID, strings.Join(lines, "\n"), mainMenuKeyboard())
}

// canonicalCity resolves free text to the stored casing of a registered
// city.
func (r *Router) canonicalCity(sess *domain.Session, text string) (string, bool) {
	name := domain.NormalizeCity(text)
	for _, c := range sess.Cities {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// DeliverDaily builds and sends the scheduled daily summary for a
// chat's notify city. Implements scheduler.Deliverer; failures are
// logged and the trigger stays installed.
func (r *Router) DeliverDaily(ctx context.Context, chatID int64) {
	sess, err := r.repo.GetSession(ctx, chatID)
	if err != nil {
		r.log.Error("deliver: load session failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	if !sess.NotificationConfigured() {
		r.log.Warn("deliver: notification not configured", zap.Int64("chatID", chatID))
		return
	}
	city := sess.NotifyCity

	wCtx, cancel := context.WithTimeout(ctx, forecastTimeout)
	defer cancel()

	var lines []string
	obs, err := r.provider.Current(wCtx, city)
	if err != nil {
		r.log.Warn("deliver: current weather failed", zap.String("city", city), zap.Error(err))
		lines = append(lines, weather.RenderUnavailable(city))
	} else {
		lines = append(lines, weather.RenderCurrent(city, obs))
	}

	if samples, err := r.provider.Forecast(wCtx, city); err != nil {
		r.log.Warn("deliver: forecast failed", zap.String("city", city), zap.Error(err))
	} else {
		loc := time.UTC
		if tz := sess.TimezoneOf(city); tz != domain.TZUnknown {
			if l, lerr := time.LoadLocation(tz); lerr == nil {
				loc = l
			}
		}
		lines = append(lines, weather.RainSummary(samples, loc, time.Now().UTC()))
	}

	lines = append(lines, randomWish())
	r.sendText(chatID, strings.Join(lines, "\n"))
}
