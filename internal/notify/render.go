// Package notify renders and delivers Telegram notifications.
package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/phone"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

// Shop holds the public-facing details of the barbershop that appear
// in every message.
type Shop struct {
	Name       string
	Address    string
	Phone      string
	BookingURL string
}

// MapURL returns a Yandex Maps link for the shop address.
func (s Shop) MapURL() string {
	return "https://yandex.ru/maps/?text=" + strings.ReplaceAll(s.Address, " ", "+")
}

var weekdaysRu = [...]string{
	"воскресенье", "понедельник", "вторник", "среда",
	"четверг", "пятница", "суббота",
}

var monthsRu = [...]string{
	"", "января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatDatetime renders an appointment start as "5 февраля (среда) в 13:30".
// Unparseable input is returned as-is so the message still carries something.
func FormatDatetime(raw string) string {
	if raw == "" {
		return ""
	}
	t, ok := yclients.ParseStartTime(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%d %s (%s) в %02d:%02d",
		t.Day(), monthsRu[t.Month()], weekdaysRu[t.Weekday()], t.Hour(), t.Minute())
}

// Renderer builds the HTML message bodies.
type Renderer struct {
	shop Shop
}

func NewRenderer(shop Shop) *Renderer {
	return &Renderer{shop: shop}
}

func (r *Renderer) NewRecord(rec yclients.Record) string {
	return fmt.Sprintf(
		"✅ <b>Вы записаны в %s!</b>\n\n"+
			"✂️ %s\n"+
			"👤 %s\n"+
			"🗓 <b>%s</b>\n\n"+
			"📍 %s\n"+
			"📞 %s\n\n"+
			"Ждём вас! 💈\n\n"+
			"<a href='%s'>Изменить или отменить запись</a>",
		r.shop.Name, rec.ServicesSummary(), rec.StaffInfo(),
		FormatDatetime(rec.Datetime), r.shop.Address, r.shop.Phone,
		yclients.RecordLink(rec, r.shop.BookingURL))
}

func (r *Renderer) Rescheduled(rec yclients.Record) string {
	return fmt.Sprintf(
		"🔄 <b>Запись перенесена!</b>\n\n"+
			"Новое время:\n"+
			"🗓 <b>%s</b>\n"+
			"✂️ %s\n"+
			"👤 %s\n\n"+
			"📍 %s\n\n"+
			"<a href='%s'>Изменить или отменить</a>",
		FormatDatetime(rec.Datetime), rec.ServicesSummary(), rec.StaffInfo(),
		r.shop.Address, yclients.RecordLink(rec, r.shop.BookingURL))
}

func (r *Renderer) Cancelled() string {
	return "❌ <b>Запись отменена</b>\n\n" +
		"Ваша запись была отменена.\n\n" +
		"Хотите записаться снова?"
}

func (r *Renderer) Reminder24h(rec yclients.Record) string {
	return fmt.Sprintf(
		"⏰ <b>Напоминание!</b>\n\n"+
			"Завтра вы записаны в <b>%s</b>:\n\n"+
			"✂️ %s\n"+
			"👤 %s\n"+
			"🗓 <b>%s</b>\n\n"+
			"📍 %s\n"+
			"📞 %s\n\n"+
			"Ждём вас! 💈\n\n"+
			"<a href='%s'>Изменить или отменить</a>",
		r.shop.Name, rec.ServicesSummary(), rec.StaffInfo(),
		FormatDatetime(rec.Datetime), r.shop.Address, r.shop.Phone,
		yclients.RecordLink(rec, r.shop.BookingURL))
}

// StaffArrival is the message the assigned master receives when the
// client is checked in at the desk. The phone number is masked.
func (r *Renderer) StaffArrival(rec yclients.Record) string {
	return fmt.Sprintf(
		"🔔 <b>К вам пришёл клиент!</b>\n\n"+
			"👤 %s\n"+
			"📞 %s\n"+
			"✂️ %s\n"+
			"🗓 %s",
		rec.ClientName(), phone.Mask(rec.ClientPhone()),
		rec.ServicesSummary(), FormatDatetime(rec.Datetime))
}

// RecordCard is a single appointment entry in the /myrecords listing.
func (r *Renderer) RecordCard(rec yclients.Record) string {
	return fmt.Sprintf(
		"🗓 <b>%s</b>\n"+
			"✂️ %s\n"+
			"👤 %s\n\n"+
			"<a href='%s'>Изменить или отменить</a>",
		FormatDatetime(rec.Datetime), rec.ServicesSummary(), rec.StaffInfo(),
		yclients.RecordLink(rec, r.shop.BookingURL))
}

func (r *Renderer) Welcome() string {
	return fmt.Sprintf(
		"👋 Добро пожаловать в <b>%s</b>!\n\n"+
			"Чтобы получать уведомления о записях, "+
			"поделитесь своим номером телефона.\n\n"+
			"📍 %s\n"+
			"📞 %s\n\n"+
			"🔒 Номер используется только для уведомлений.",
		r.shop.Name, r.shop.Address, r.shop.Phone)
}

func (r *Renderer) ContactSaved(firstName, phoneNumber string) string {
	if firstName == "" {
		firstName = "друг"
	}
	return fmt.Sprintf(
		"✅ Отлично, %s!\n\n"+
			"Номер <code>%s</code> сохранён.\n\n"+
			"Теперь вы будете получать:\n"+
			"• 📲 Уведомление сразу при записи\n"+
			"• 🔄 Уведомление при изменении/отмене\n"+
			"• ⏰ Напоминание за 24 часа\n\n"+
			"Ждём вас в <b>%s</b>! 💈",
		firstName, phoneNumber, r.shop.Name)
}

func (r *Renderer) ContactCard() string {
	return fmt.Sprintf(
		"📍 <b>%s</b>\n\n"+
			"🏠 %s\n"+
			"📞 %s",
		r.shop.Name, r.shop.Address, r.shop.Phone)
}

// GoogleCalendarURL builds a prefilled Google Calendar event link for
// an appointment.
func (r *Renderer) GoogleCalendarURL(rec yclients.Record) string {
	start, ok := rec.StartTime()
	if !ok {
		return ""
	}
	end := start.Add(time.Duration(rec.DurationMinutes()) * time.Minute)
	const stamp = "20060102T150405"
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", r.shop.Name+": "+rec.ServicesSummary())
	q.Set("dates", start.Format(stamp)+"/"+end.Format(stamp))
	q.Set("details", "Мастер: "+rec.StaffName()+"\nТелефон: "+r.shop.Phone)
	q.Set("location", r.shop.Address)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
