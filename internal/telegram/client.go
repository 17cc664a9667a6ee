package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is returned when the Bot API answers with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

var allowedUpdates = []string{"message", "callback_query"}

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient talks to the Bot API at baseURL, or api.telegram.org when empty.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		// getUpdates holds the connection open; calls are bounded by ctx.
		httpClient: &http.Client{},
	}
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		return &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
	}
	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	var u User
	err := c.call(ctx, "getMe", struct{}{}, &u)
	return u, err
}

// GetUpdates long-polls for up to timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()
	req := GetUpdatesRequest{Offset: offset, Timeout: int(timeout.Seconds()), AllowedUpdates: allowedUpdates}
	var updates []Update
	err := c.call(ctx, "getUpdates", req, &updates)
	return updates, err
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) (int64, error) {
	req := SendMessageRequest{ChatID: chatID, Text: text}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return 0, err
		}
		req.ReplyMarkup = rm
	}
	var msg MessageResult
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	req := AnswerCallbackQueryRequest{CallbackQueryID: callbackID, Text: text}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

func (c *Client) GetChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error) {
	var members []ChatMember
	err := c.call(ctx, "getChatAdministrators", ChatRequest{ChatID: chatID}, &members)
	return members, err
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	req := SetWebhookRequest{URL: url, SecretToken: secretToken, AllowedUpdates: allowedUpdates}
	return c.call(ctx, "setWebhook", req, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{}, nil)
}
