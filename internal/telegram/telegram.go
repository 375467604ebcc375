// Package telegram is a small Bot API client: sendMessage for delivery and
// getUpdates for poll mode.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL  = "https://api.telegram.org"
	defaultPollWait = 10 * time.Second
	parseModeMD     = "Markdown"
)

// APIError is a Bot API rejection.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %d: %s", e.Code, e.Description)
}

// markupRejected reports whether Telegram refused the Markdown of a message.
func markupRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Description), "can't parse entities")
}

type Options struct {
	Token    string
	ChatID   string
	BaseURL  string
	Timeout  time.Duration
	PollWait time.Duration
	Logger   zerolog.Logger
}

type Client struct {
	send     *resty.Client
	poll     *resty.Client
	chatID   string
	pollWait time.Duration
	log      zerolog.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PollWait <= 0 {
		opts.PollWait = defaultPollWait
	}
	base := strings.TrimRight(opts.BaseURL, "/") + "/bot" + opts.Token
	return &Client{
		send: resty.New().SetBaseURL(base).SetTimeout(opts.Timeout),
		// long polls hold the connection for PollWait
		poll:     resty.New().SetBaseURL(base).SetTimeout(opts.PollWait + opts.Timeout),
		chatID:   opts.ChatID,
		pollWait: opts.PollWait,
		log:      opts.Logger,
	}
}

// ChatID is the configured recipient.
func (c *Client) ChatID() string { return c.chatID }

// Send delivers text to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	if c.chatID == "" {
		return fmt.Errorf("telegram chat id not configured")
	}
	return c.SendTo(ctx, c.chatID, text)
}

// SendTo delivers text with Markdown enabled. When Telegram cannot parse the
// markup the same text is sent once more without a parse mode.
func (c *Client) SendTo(ctx context.Context, chatID, text string) error {
	err := c.sendMessage(ctx, chatID, text, parseModeMD)
	if markupRejected(err) {
		c.log.Warn().Err(err).Msg("markdown rejected, resending as plain text")
		err = c.sendMessage(ctx, chatID, text, "")
	}
	if err != nil {
		return err
	}
	c.log.Info().Int("length", len([]rune(text))).Msg("message sent")
	return nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) sendMessage(ctx context.Context, chatID, text, parseMode string) error {
	form := map[string]string{"chat_id": chatID, "text": text}
	if parseMode != "" {
		form["parse_mode"] = parseMode
	}
	resp, err := c.send.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("sendMessage request: %w", err)
	}
	_, err = decode(resp)
	return err
}

func decode(resp *resty.Response) (json.RawMessage, error) {
	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return nil, &APIError{Code: resp.StatusCode(), Description: resp.Status()}
	}
	if !ar.OK {
		code := ar.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return nil, &APIError{Code: code, Description: ar.Description}
	}
	return ar.Result, nil
}

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	resp, err := c.poll.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":          strconv.FormatInt(offset, 10),
			"timeout":         strconv.Itoa(int(c.pollWait.Seconds())),
			"allowed_updates": `["message"]`,
		}).
		Get("/getUpdates")
	if err != nil {
		return nil, fmt.Errorf("getUpdates request: %w", err)
	}
	raw, err := decode(resp)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}
