package service

import (
	"context"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/truemediaorg/cobaltbot/model"

	log "github.com/sirupsen/logrus"
)

const pollTimeoutSeconds = 60

type TelegramService struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramService(token string) (*TelegramService, error) {
	return NewTelegramServiceWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{})
}

// NewTelegramServiceWithEndpoint talks to a Bot API server other than the public
// one. endpoint is a format string taking the token and the method name.
func NewTelegramServiceWithEndpoint(token string, endpoint string, client *http.Client) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, err
	}
	log.Infof("Telegram bot authorized. Username: @%s", bot.Self.UserName)
	return &TelegramService{bot: bot}, nil
}

/*
Messages long-polls Telegram and emits every inbound text message until ctx is done.
Updates that carry no message (edits, callbacks, channel posts) are dropped.
The returned channel is closed once polling stops.
*/
func (s *TelegramService) Messages(ctx context.Context) <-chan model.Message {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := s.bot.GetUpdatesChan(u)

	out := make(chan model.Message)
	go func() {
		defer close(out)
		defer s.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := messageFromUpdate(update)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func messageFromUpdate(update tgbotapi.Update) (model.Message, bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return model.Message{}, false
	}
	msg := model.Message{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		msg.UserName = m.From.UserName
	}
	if m.IsCommand() {
		msg.Command = strings.ToLower(m.Command())
		msg.Args = strings.Fields(m.CommandArguments())
	}
	if reply := m.ReplyToMessage; reply != nil {
		msg.ReplyToText = reply.Text
		if msg.ReplyToText == "" {
			msg.ReplyToText = reply.Caption
		}
	}
	return msg, true
}

func (s *TelegramService) SendText(ctx context.Context, chat model.Chat, text string) error {
	msg := tgbotapi.NewMessage(chat.ID, text)
	msg.ReplyToMessageID = chat.ReplyToMessageID
	msg.DisableWebPagePreview = true
	return s.send(ctx, "send text", msg)
}

// Media is passed by URL; Telegram downloads it itself.

func (s *TelegramService) SendAudio(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	audio := tgbotapi.NewAudio(chat.ID, tgbotapi.FileURL(mediaURL))
	audio.Caption = caption
	audio.ReplyToMessageID = chat.ReplyToMessageID
	return s.send(ctx, "send audio", audio)
}

func (s *TelegramService) SendPhoto(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	photo := tgbotapi.NewPhoto(chat.ID, tgbotapi.FileURL(mediaURL))
	photo.Caption = caption
	photo.ReplyToMessageID = chat.ReplyToMessageID
	return s.send(ctx, "send photo", photo)
}

func (s *TelegramService) SendVideo(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	video := tgbotapi.NewVideo(chat.ID, tgbotapi.FileURL(mediaURL))
	video.Caption = caption
	video.ReplyToMessageID = chat.ReplyToMessageID
	return s.send(ctx, "send video", video)
}

// All transport failures come back as *model.DeliveryError.
func (s *TelegramService) send(ctx context.Context, operation string, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return &model.DeliveryError{Operation: operation, Err: err}
	}
	if _, err := s.bot.Send(c); err != nil {
		return &model.DeliveryError{Operation: operation, Err: err}
	}
	return nil
}
