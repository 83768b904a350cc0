package telegram

import (
	"math/rand"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/theSp0ty/Weather-bot-tg/assets"
)

// Main menu buttons. These exact labels arrive back as message text.
const (
	btnAddCity     = "Добавить город 🏙️"
	btnRemoveCity  = "Удалить город 🗑️"
	btnShowWeather = "Показать погоду 🌦️"
	btnSetTime     = "Установить время ⏰"
	btnStopNotify  = "Отключить уведомления ⏹"
	btnHome        = "Меню 🏠"
)

// In-menu sentinels.
const (
	sentinelAddAnother = "➕ Добавить ещё город"
	sentinelCustomTime = "✍️ Своё время"
	sentinelAllCities  = "🌍 Все города"
)

var timePresets = []string{"07:00", "08:00", "09:00", "12:00", "18:00", "21:00"}

const (
	textStart            = "Привет! Я бот прогноза погоды и хорошего настроения. Выберите действие:"
	textStartNoTime      = "\n\n❗ Для автоматических напоминаний о погоде установите время (кнопка \"" + btnSetTime + "\")."
	textMenuHint         = "Выберите действие на клавиатуре ниже:"
	textAskCityAdd       = "Введите название города для добавления:"
	textAskCityRemove    = "Введите название города для удаления:"
	textNoCities         = "Сначала добавьте хотя бы один город."
	textNoCitiesToRemove = "У вас нет городов для удаления."
	textAskNotifyCity    = "Для какого города присылать ежедневный прогноз?"
	textAskTime          = "В какое время присылать прогноз?"
	textAskCustomTime    = "Введите время в формате ЧЧ:ММ (например, 09:00):"
	textBadTime          = "Пожалуйста, введите время в формате ЧЧ:ММ (например, 09:00)."
	textAskForecastCity  = "Для какого города показать погоду?"
	textNotifyStopped    = "Уведомления отключены. Ваши города сохранены."
	textStorageError     = "Не получилось сохранить изменения. Попробуйте ещё раз."
)

var wishes = assets.Wishes()

// randomWish picks one good-mood line for the end of a forecast message.
func randomWish() string {
	if len(wishes) == 0 {
		return ""
	}
	return wishes[rand.Intn(len(wishes))]
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddCity),
			tgbotapi.NewKeyboardButton(btnRemoveCity),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnShowWeather),
			tgbotapi.NewKeyboardButton(btnSetTime),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStopNotify),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// citiesKeyboard lists one city per row followed by extra option rows
// and the home button.
func citiesKeyboard(cities []string, extras ...string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(cities)+len(extras)+1)
	for _, c := range cities {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c)))
	}
	for _, e := range extras {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(e)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnHome)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func timePresetsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(timePresets[0]),
			tgbotapi.NewKeyboardButton(timePresets[1]),
			tgbotapi.NewKeyboardButton(timePresets[2]),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(timePresets[3]),
			tgbotapi.NewKeyboardButton(timePresets[4]),
			tgbotapi.NewKeyboardButton(timePresets[5]),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(sentinelCustomTime),
			tgbotapi.NewKeyboardButton(btnHome),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
