package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const callbackSeparator = "|"

var ErrInvalidCallback = errors.New("notify: invalid callback data")

// botAPI is the part of *tgbotapi.BotAPI the presenter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type sentMessage struct {
	messageID int
	payload   Payload
}

// TelegramPresenter sends each notification to one chat with inline action
// buttons. Button presses come back as Actions through Listen.
type TelegramPresenter struct {
	api    botAPI
	chatID int64
	log    *slog.Logger

	mu   sync.Mutex
	sent map[string]sentMessage
}

func NewTelegramPresenter(token string, chatID int64, log *slog.Logger) (*TelegramPresenter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("telegram bot authorized", "account", api.Self.UserName)
	return newTelegramPresenter(api, chatID, log), nil
}

func newTelegramPresenter(api botAPI, chatID int64, log *slog.Logger) *TelegramPresenter {
	if log == nil {
		log = slog.Default()
	}
	return &TelegramPresenter{
		api:    api,
		chatID: chatID,
		log:    log.With("component", "telegram"),
		sent:   make(map[string]sentMessage),
	}
}

func (p *TelegramPresenter) Present(_ context.Context, n Presentation) error {
	text := n.Request.Content.Title
	if body := strings.TrimSpace(n.Request.Content.Body); body != "" {
		text += "\n" + body
	}
	msg := tgbotapi.NewMessage(p.chatID, text)
	if len(n.Actions) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(n.Actions))
		for _, a := range n.Actions {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Title, encodeCallback(a.ID, n.Request.Identifier)))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}
	sent, err := p.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	p.mu.Lock()
	previous, replaced := p.sent[n.Request.Identifier]
	p.sent[n.Request.Identifier] = sentMessage{messageID: sent.MessageID, payload: n.Request.Content.Payload}
	p.mu.Unlock()
	// One message per identifier: older buttons would act on a stale reminder.
	if replaced {
		if _, err := p.api.Request(tgbotapi.NewDeleteMessage(p.chatID, previous.messageID)); err != nil {
			p.log.Warn("delete replaced message", "identifier", n.Request.Identifier, "err", err)
		}
	}
	return nil
}

// Dismiss deletes the message that presented identifier.
func (p *TelegramPresenter) Dismiss(_ context.Context, identifier string) error {
	p.mu.Lock()
	sent, ok := p.sent[identifier]
	delete(p.sent, identifier)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if _, err := p.api.Request(tgbotapi.NewDeleteMessage(p.chatID, sent.messageID)); err != nil {
		return fmt.Errorf("delete telegram message: %w", err)
	}
	return nil
}

// Listen polls for button presses until ctx is cancelled and hands them to
// sink.
func (p *TelegramPresenter) Listen(ctx context.Context, sink ActionSink) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := p.api.GetUpdatesChan(updateConfig)

	p.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		p.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.CallbackQuery == nil {
			continue
		}
		if err := p.handleCallback(update.CallbackQuery, sink); err != nil {
			p.log.Warn("handle callback", "err", err)
		}
	}
}

func (p *TelegramPresenter) handleCallback(cb *tgbotapi.CallbackQuery, sink ActionSink) error {
	if _, err := p.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		p.log.Warn("answer callback", "err", err)
	}
	actionID, identifier, err := decodeCallback(cb.Data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	sent, ok := p.sent[identifier]
	p.mu.Unlock()

	action := Action{Identifier: identifier, ActionID: actionID}
	if ok {
		action.Payload = sent.payload
	}
	if !sink.Deliver(action) {
		return ErrStopped
	}
	return nil
}

func encodeCallback(actionID, identifier string) string {
	return actionID + callbackSeparator + identifier
}

func decodeCallback(data string) (actionID, identifier string, err error) {
	actionID, identifier, ok := strings.Cut(data, callbackSeparator)
	if !ok || actionID == "" || identifier == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCallback, data)
	}
	return actionID, identifier, nil
}
