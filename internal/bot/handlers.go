package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mesto-barbershop/notifybot/internal/ics"
	"github.com/mesto-barbershop/notifybot/internal/notify"
	"github.com/mesto-barbershop/notifybot/internal/phone"
	"github.com/mesto-barbershop/notifybot/internal/session"
	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, b.render.Welcome(), notify.ContactRequestKeyboard())
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	contact := msg.Contact
	if contact.UserID != msg.From.ID {
		b.reply(msg.Chat.ID, "⚠️ Отправьте свой контакт.", notify.ContactRequestKeyboard())
		return
	}

	num := contact.PhoneNumber
	if !strings.HasPrefix(num, "+") {
		num = "+" + num
	}

	err := b.clients.Upsert(ctx, storage.Client{
		TelegramID: msg.From.ID,
		Phone:      num,
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		Username:   msg.From.UserName,
	})
	if err != nil {
		b.logger.Error("save client", "err", err, "telegram_id", msg.From.ID)
		b.reply(msg.Chat.ID, "😔 Ошибка. Попробуйте ещё раз.", notify.ContactRequestKeyboard())
		return
	}
	b.reply(msg.Chat.ID, b.render.ContactSaved(contact.FirstName, num), notify.MainKeyboard())
}

func (b *Bot) handleMyRecords(ctx context.Context, chatID, userID int64) {
	registered, ok, err := b.clients.PhoneByTelegramID(ctx, userID)
	if err != nil {
		b.logger.Error("lookup client phone", "err", err, "telegram_id", userID)
		return
	}
	if !ok {
		b.reply(chatID, "Поделитесь номером телефона:", notify.ContactRequestKeyboard())
		return
	}

	records, err := b.source.UpcomingRecords(ctx, time.Now())
	if err != nil {
		b.logger.Error("fetch upcoming records", "err", err)
		b.reply(chatID, "😔 Не удалось загрузить записи. Попробуйте позже.", notify.MainKeyboard())
		return
	}

	suffix := phone.SuffixKey(registered)
	var mine []yclients.Record
	for _, rec := range records {
		if phone.SuffixKey(rec.ClientPhone()) == suffix {
			mine = append(mine, rec)
		}
	}

	if len(mine) == 0 {
		b.reply(chatID, "📅 У вас нет предстоящих записей.", notify.MainKeyboard())
		b.reply(chatID, "Хотите записаться?", b.render.BookingKeyboard())
		return
	}

	b.reply(chatID, fmt.Sprintf("📅 <b>Ваши записи (%d):</b>", len(mine)), notify.MainKeyboard())
	for _, rec := range mine {
		b.reply(chatID, b.render.RecordCard(rec), b.render.RecordCardKeyboard(rec))
	}
}

func (b *Bot) handleStaffCommand(ctx context.Context, msg *tgbotapi.Message) {
	err := b.sessions.Put(ctx, msg.From.ID, session.Session{State: session.StateAwaitingCode})
	if err != nil {
		b.logger.Error("start staff session", "err", err)
		return
	}
	b.reply(msg.Chat.ID, "👨‍💼 <b>Регистрация сотрудника</b>\n\nВведите секретный код:", nil)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	sess, inSession, err := b.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error("load session", "err", err)
	}
	if inSession && sess.State == session.StateAwaitingCode {
		b.handleStaffCode(ctx, msg)
		return
	}

	switch msg.Text {
	case notify.ButtonMyRecords:
		b.handleMyRecords(ctx, msg.Chat.ID, msg.From.ID)
	case notify.ButtonBook:
		b.reply(msg.Chat.ID, fmt.Sprintf("📅 Запишитесь в <b>%s</b>!", b.cfg.Shop.Name), b.render.BookingKeyboard())
	case notify.ButtonContact:
		b.reply(msg.Chat.ID, b.render.ContactCard(), b.render.ContactInfoKeyboard())
	default:
		if _, registered, _ := b.clients.PhoneByTelegramID(ctx, msg.From.ID); registered {
			b.reply(msg.Chat.ID, "Выберите действие:", notify.MainKeyboard())
		} else {
			b.reply(msg.Chat.ID, "Поделитесь номером телефона:", notify.ContactRequestKeyboard())
		}
	}
}

func (b *Bot) handleStaffCode(ctx context.Context, msg *tgbotapi.Message) {
	if !CheckStaffCode(b.cfg.StaffCode, msg.Text) {
		if err := b.sessions.Delete(ctx, msg.From.ID); err != nil {
			b.logger.Error("drop session", "err", err)
		}
		b.reply(msg.Chat.ID, "❌ Неверный код. Попробуйте /staff заново.", nil)
		return
	}

	roster, err := b.source.StaffList(ctx)
	if err != nil || len(roster) == 0 {
		b.logger.Error("fetch staff roster", "err", err)
		b.reply(msg.Chat.ID, "❌ Не удалось загрузить список мастеров. Попробуйте позже.", nil)
		if err := b.sessions.Delete(ctx, msg.From.ID); err != nil {
			b.logger.Error("drop session", "err", err)
		}
		return
	}

	taken, err := b.staff.RegisteredRemoteIDs(ctx)
	if err != nil {
		b.logger.Error("list registered staff", "err", err)
		taken = map[int64]bool{}
	}

	names := make(map[int64]string)
	var free []storage.StaffMember
	for _, m := range roster {
		if taken[m.ID] {
			continue
		}
		names[m.ID] = m.Name
		free = append(free, storage.StaffMember{YClientsStaffID: m.ID, Name: m.Name})
	}

	if len(free) == 0 {
		b.reply(msg.Chat.ID, "✅ Все мастера уже зарегистрированы!", nil)
		if err := b.sessions.Delete(ctx, msg.From.ID); err != nil {
			b.logger.Error("drop session", "err", err)
		}
		return
	}

	sort.Slice(free, func(i, j int) bool { return free[i].Name < free[j].Name })
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(free))
	for _, m := range free {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 "+m.Name, fmt.Sprintf("staff_select_%d", m.YClientsStaffID)),
		))
	}

	err = b.sessions.Put(ctx, msg.From.ID, session.Session{
		State:      session.StateAwaitingSelection,
		StaffNames: names,
	})
	if err != nil {
		b.logger.Error("advance staff session", "err", err)
		return
	}
	b.reply(msg.Chat.ID, "✅ Код верный!\n\nВыберите себя:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	switch {
	case strings.HasPrefix(data, "staff_select_"):
		b.handleStaffSelect(ctx, cq, strings.TrimPrefix(data, "staff_select_"))
	case strings.HasPrefix(data, "calendar_"):
		b.handleCalendar(ctx, cq, strings.TrimPrefix(data, "calendar_"))
	}
}

func (b *Bot) handleStaffSelect(ctx context.Context, cq *tgbotapi.CallbackQuery, rawID string) {
	staffID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.answerCallback(cq, "⚠️ Некорректный выбор.", true)
		return
	}

	sess, ok, err := b.sessions.Get(ctx, cq.From.ID)
	if err != nil || !ok || sess.State != session.StateAwaitingSelection {
		b.answerCallback(cq, "⚠️ Сессия истекла. Начните с /staff.", true)
		return
	}

	name, known := sess.StaffNames[staffID]
	if !known {
		b.answerCallback(cq, "⚠️ Некорректный выбор.", true)
		return
	}

	err = b.staff.Upsert(ctx, storage.StaffMember{
		TelegramID:      cq.From.ID,
		Name:            name,
		YClientsStaffID: staffID,
	})
	if errors.Is(err, storage.ErrMasterClaimed) {
		// A stale keyboard can offer a master someone claimed meanwhile.
		if err := b.sessions.Delete(ctx, cq.From.ID); err != nil {
			b.logger.Error("drop session", "err", err)
		}
		b.answerCallback(cq, "⚠️ Этот мастер уже зарегистрирован. Начните с /staff заново.", true)
		return
	}
	if err != nil {
		b.logger.Error("save staff member", "err", err, "staff_id", staffID)
		b.answerCallback(cq, "😔 Ошибка. Попробуйте ещё раз.", true)
		return
	}
	if err := b.sessions.Delete(ctx, cq.From.ID); err != nil {
		b.logger.Error("drop session", "err", err)
	}

	b.answerCallback(cq, "✅ Готово!", false)
	b.reply(cq.Message.Chat.ID, fmt.Sprintf(
		"✅ <b>%s</b>, регистрация завершена!\n\n"+
			"Вы будете получать уведомление, когда ваш клиент придёт в барбершоп.", name), nil)
}

func (b *Bot) handleCalendar(ctx context.Context, cq *tgbotapi.CallbackQuery, rawID string) {
	recordID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.answerCallback(cq, "⚠️ Запись не найдена.", true)
		return
	}

	tr, found, err := b.tracked.Get(ctx, recordID)
	if err != nil || !found || tr.Status != storage.StatusActive {
		b.answerCallback(cq, "⚠️ Запись не найдена. Попробуйте снова через «Мои записи».", true)
		return
	}

	rec := yclients.Record{
		ID:       tr.RecordID,
		Datetime: tr.StartAt,
		Services: []yclients.Service{{Title: tr.Services}},
		Staff:    &yclients.StaffRef{Name: tr.StaffName},
	}

	doc := tgbotapi.NewDocument(cq.Message.Chat.ID, tgbotapi.FileBytes{
		Name:  ics.Filename(b.cfg.Shop.Name, rec),
		Bytes: b.cal.Render(rec, time.Now()),
	})
	doc.Caption = "📅 Откройте файл → добавится в календарь iPhone.\n\n" +
		"✅ Напоминания: за 1 час и за 15 минут."
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("send calendar file", "err", err, "record_id", recordID)
		b.answerCallback(cq, "😔 Ошибка. Попробуйте ещё раз.", true)
		return
	}
	b.answerCallback(cq, "📅 Файл для Apple календаря!", false)
}
