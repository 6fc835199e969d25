// Package telegram wraps the Bot API client used to push messages,
// keyboards, and files back into chats, and the registry that maps webhook
// tokens to configured bots.
package telegram

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatSender is the chat-side surface the conversation and relay services
// depend on. *Sender is the production implementation; tests substitute
// fakes.
type ChatSender interface {
	// SendText delivers a plain text message to a chat.
	SendText(chatID int64, text string) error
	// SendContactRequest shows a one-time reply keyboard with a single
	// share-contact button.
	SendContactRequest(chatID int64, text, buttonLabel string) error
	// SendTextWithCancel delivers text with an inline cancel-ticket button.
	SendTextWithCancel(chatID int64, text, buttonLabel string) error
	// SendPhoto delivers bytes as a photo with an optional caption.
	SendPhoto(chatID int64, data []byte, filename, caption string) error
	// SendDocument delivers bytes as a generic document.
	SendDocument(chatID int64, data []byte, filename, caption string) error
	// AnswerCallback acknowledges a button press.
	AnswerCallback(callbackID, text string) error
	// DownloadFile fetches a Telegram-hosted file and returns its content
	// and a best-effort filename.
	DownloadFile(fileID string) ([]byte, string, error)
}

// CallbackCancelTicket is the callback data of the inline cancel button.
const CallbackCancelTicket = "cancel_ticket"

// Sender implements ChatSender over one bot's API connection.
type Sender struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

// NewSender authorizes against the Bot API. An empty endpoint selects the
// public one; tests and proxies may override it.
func NewSender(token, endpoint string) (*Sender, error) {
	var (
		api *tgbotapi.BotAPI
		err error
	)
	if endpoint == "" {
		api, err = tgbotapi.NewBotAPI(token)
	} else {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	return &Sender{
		api:  api,
		http: &http.Client{Timeout: 45 * time.Second},
	}, nil
}

// Username returns the authorized bot account name.
func (s *Sender) Username() string { return s.api.Self.UserName }

// SendText delivers a plain text message.
func (s *Sender) SendText(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendContactRequest shows a one-time keyboard with a request-contact
// button. The keyboard disappears after a single use.
func (s *Sender) SendContactRequest(chatID int64, text, buttonLabel string) error {
	btn := tgbotapi.KeyboardButton{Text: buttonLabel, RequestContact: true}
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := s.api.Send(msg)
	return err
}

// SendTextWithCancel delivers text plus an inline cancel-ticket button.
func (s *Sender) SendTextWithCancel(chatID int64, text, buttonLabel string) error {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonLabel, CallbackCancelTicket),
		),
	)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := s.api.Send(msg)
	return err
}

// SendPhoto delivers bytes as a photo.
func (s *Sender) SendPhoto(chatID int64, data []byte, filename, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	photo.Caption = caption
	_, err := s.api.Send(photo)
	return err
}

// SendDocument delivers bytes as a generic document.
func (s *Sender) SendDocument(chatID int64, data []byte, filename, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	_, err := s.api.Send(doc)
	return err
}

// AnswerCallback acknowledges an inline button press.
func (s *Sender) AnswerCallback(callbackID, text string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// DownloadFile fetches file content from the Bot API file storage.
func (s *Sender) DownloadFile(fileID string) ([]byte, string, error) {
	f, err := s.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", err
	}
	resp, err := s.http.Get(f.Link(s.api.Token))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("telegram: file download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	name := path.Base(f.FilePath)
	if name == "." || name == "/" || name == "" {
		name = fileID
	}
	return data, name, nil
}
