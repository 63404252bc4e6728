// Package telegram содержит минимальный клиент Telegram Bot API: отправку
// и редактирование сообщений, ответы на callback-и, long poll обновлений
// и управление участниками канала. Клиент написан по тому же принципу,
// что и клиент платёжного шлюза: типизированные JSON-запросы поверх
// net/http, без ретраев внутри.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrAPI — Bot API вернул ok=false; описание причины вложено в текст ошибки.
var ErrAPI = errors.New("telegram api error")

// pollTimeout — таймаут long poll на стороне Telegram. Таймаут HTTP-клиента
// должен быть заметно больше, иначе соединение рвётся раньше ответа.
const pollTimeout = 30

// Client клиент Bot API.
type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент с токеном, выданным BotFather.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		apiURL:     "https://api.telegram.org",
		httpClient: &http.Client{Timeout: (pollTimeout + 10) * time.Second},
	}
}

// call выполняет метод Bot API и декодирует result, если он нужен.
func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s: %w: %s", method, ErrAPI, apiResp.Description)
	}
	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
	return nil
}

// GetUpdates забирает очередную порцию событий long poll-ом. offset —
// update_id, с которого продолжать (последний обработанный + 1).
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesPayload{Offset: offset, Timeout: pollTimeout}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage отправляет пользователю сообщение, опционально с клавиатурой.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	return c.call(ctx, "sendMessage", sendMessagePayload{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "Markdown",
		ReplyMarkup: keyboard,
	}, nil)
}

// EditMessageText заменяет текст и клавиатуру ранее отправленного сообщения.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	return c.call(ctx, "editMessageText", editMessageTextPayload{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   "Markdown",
		ReplyMarkup: keyboard,
	}, nil)
}

// AnswerCallbackQuery снимает "часики" с нажатой кнопки.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryPayload{
		CallbackQueryID: callbackID,
		Text:            text,
	}, nil)
}

// BanChatMember удаляет пользователя из канала.
func (c *Client) BanChatMember(ctx context.Context, chatID string, userID int64) error {
	return c.call(ctx, "banChatMember", banChatMemberPayload{ChatID: chatID, UserID: userID}, nil)
}

// UnbanChatMember снимает бан, не возвращая пользователя в канал. Пара
// Ban+Unban — это "кик без бана": постоянная инвайт-ссылка продолжает
// работать, и после новой оплаты пользователь входит сам.
func (c *Client) UnbanChatMember(ctx context.Context, chatID string, userID int64) error {
	return c.call(ctx, "unbanChatMember", unbanChatMemberPayload{
		ChatID:       chatID,
		UserID:       userID,
		OnlyIfBanned: true,
	}, nil)
}
