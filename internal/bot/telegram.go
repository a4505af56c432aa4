package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bowerhall/albumbot/internal/flow"
	"github.com/bowerhall/albumbot/internal/logger"
	"github.com/bowerhall/albumbot/internal/media"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxImageSize = 20 * 1024 * 1024 // 20MB limit for images

// Telegram is the long-polling transport. It converts updates into
// flow events and implements the machine's outbound interface.
type Telegram struct {
	api     *tgbotapi.BotAPI
	machine *flow.Machine
}

func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Telegram{api: api}, nil
}

// SetMachine wires the event sink. The machine needs the transport to
// exist first, so this is set after construction.
func (t *Telegram) SetMachine(m *flow.Machine) {
	t.machine = m
}

func (t *Telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram polling started", "bot", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go t.handleUpdate(update)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message != nil {
		t.handleMessage(update.Message)
	}
}

func (t *Telegram) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	// stop the client spinner
	if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Debug("callback ack failed", "error", err)
	}

	ev := flow.Event{
		Kind:       flow.EventCallback,
		UserID:     cb.From.ID,
		Username:   cb.From.UserName,
		FullName:   fullName(cb.From),
		CallbackID: cb.Data,
	}
	if cb.Message != nil {
		ev.PromptMsgID = cb.Message.MessageID
	}

	logger.Info("callback received", "userID", ev.UserID, "data", ev.CallbackID)

	t.machine.HandleEvent(ev)
}

func (t *Telegram) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	ev := flow.Event{
		UserID:   msg.From.ID,
		Username: msg.From.UserName,
		FullName: fullName(msg.From),
	}

	switch {
	case msg.IsCommand():
		ev.Kind = flow.EventCommand
		ev.Command = msg.Command()
		logger.Info("command received", "userID", ev.UserID, "command", ev.Command)

	case len(msg.Photo) > 0:
		// sizes are ordered small to large; re-sending the largest
		// keeps full quality
		photo := msg.Photo[len(msg.Photo)-1]
		ev.Kind = flow.EventPhoto
		ev.Photo = media.Ref(photo.FileID)
		ev.GroupID = media.GroupID(msg.MediaGroupID)
		logger.Info("photo received", "userID", ev.UserID, "group", msg.MediaGroupID)

	default:
		ev.Kind = flow.EventText
		ev.Text = msg.Text
		logger.Info("message received", "userID", ev.UserID, "text", truncate(msg.Text, 50))
	}

	t.machine.HandleEvent(ev)
}

func (t *Telegram) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) SendMenu(chatID int64, text string, buttons []string) error {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(buttons))
	for _, label := range buttons {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard

	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) SendWithButtons(chatID int64, text string, buttons []flow.Button) (int, error) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Label, b.CallbackID)))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}

	return sent.MessageID, nil
}

func (t *Telegram) SendAlbum(chatID int64, refs []media.Ref, caption string) error {
	if len(refs) == 0 {
		return nil
	}

	files := make([]interface{}, 0, len(refs))
	for i, ref := range refs {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(ref))
		if i == 0 {
			item.Caption = caption
		}
		files = append(files, item)
	}

	group := tgbotapi.NewMediaGroup(chatID, files)
	_, err := t.api.SendMediaGroup(group)
	return err
}

func (t *Telegram) DeleteMessage(chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// DownloadPhoto fetches the binary content behind a photo ref. Used by
// the album archiver.
func (t *Telegram) DownloadPhoto(ref media.Ref) ([]byte, string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: string(ref)})
	if err != nil {
		return nil, "", err
	}

	url := file.Link(t.api.Token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", err
	}

	return data, http.DetectContentType(data), nil
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
