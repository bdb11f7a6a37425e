package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

// RecordKeyboard gives the recipient a personal change/cancel link and
// directions to the shop.
func (r *Renderer) RecordKeyboard(rec yclients.Record) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✏️ Изменить / Отменить", yclients.RecordLink(rec, r.shop.BookingURL)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📍 Как добраться", r.shop.MapURL()),
		),
	)
}

// RecordCardKeyboard extends RecordKeyboard with calendar export
// buttons. The callback payload carries the record id so the handler
// can look the appointment up again.
func (r *Renderer) RecordCardKeyboard(rec yclients.Record) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✏️ Изменить / Отменить", yclients.RecordLink(rec, r.shop.BookingURL)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 В календарь iPhone", fmt.Sprintf("calendar_%d", rec.ID)),
		),
	}
	if gcal := r.GoogleCalendarURL(rec); gcal != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📅 В Google Календарь", gcal),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL("📍 Как добраться", r.shop.MapURL()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (r *Renderer) BookingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✏️ Записаться онлайн", r.shop.BookingURL),
		),
	)
}

func (r *Renderer) ContactInfoKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📍 На карте", r.shop.MapURL()),
		),
	)
}

// ContactRequestKeyboard asks the user to share their phone number.
func ContactRequestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Поделиться номером телефона"),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}

const (
	ButtonMyRecords = "📅 Мои записи"
	ButtonBook      = "✏️ Записаться"
	ButtonContact   = "📞 Связаться"
)

func MainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonMyRecords),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonBook),
			tgbotapi.NewKeyboardButton(ButtonContact),
		),
	)
}
