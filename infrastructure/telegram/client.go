package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sharebite/sharebite-bot/domains/media"
	"github.com/sharebite/sharebite-bot/domains/messaging"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

const (
	// RequestTimeout bounds every regular API call.
	RequestTimeout = 10 * time.Second
	// MetadataTimeout bounds file-reference resolution.
	MetadataTimeout = 5 * time.Second
	// DownloadTimeout bounds raw file-content retrieval.
	DownloadTimeout = 30 * time.Second

	defaultBaseURL = "https://api.telegram.org"
)

// Config holds the Bot API credentials and endpoint.
type Config struct {
	Token   string
	BaseURL string
}

// Client is the raw Bot API transport. Errors are classified into the typed
// taxonomy so the circuit breaker and retry policies can tell transient
// upstream failures from request faults.
type Client struct {
	cfg      Config
	api      *http.Client
	meta     *http.Client
	download *http.Client
}

var _ messaging.ITransport = (*Client)(nil)
var _ media.IFileAPI = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg:      cfg,
		api:      &http.Client{Timeout: RequestTimeout},
		meta:     &http.Client{Timeout: MetadataTimeout},
		download: &http.Client{Timeout: DownloadTimeout},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method)
}

func (c *Client) call(ctx context.Context, httpClient *http.Client, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return pkgError.InternalServerError(fmt.Sprintf("failed to marshal %s params: %v", method, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return pkgError.InternalServerError(fmt.Sprintf("failed to build %s request: %v", method, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return classifyTransportError(method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return pkgError.UpstreamServerError(fmt.Sprintf("%s returned unparseable body: %v", method, err))
	}

	if !parsed.OK {
		return pkgError.UpstreamError(resp.StatusCode, fmt.Sprintf("%s: %s", method, parsed.Description))
	}

	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return pkgError.UpstreamServerError(fmt.Sprintf("%s result decode failed: %v", method, err))
		}
	}
	return nil
}

// classifyTransportError maps I/O failures onto the error taxonomy. Deadline
// hits become timeouts; anything else at this level means the platform was
// unreachable, which counts as an upstream failure.
func classifyTransportError(method string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return pkgError.TimeoutError(fmt.Sprintf("%s timed out: %v", method, err))
	}
	return pkgError.UpstreamServerError(fmt.Sprintf("%s transport failure: %v", method, err))
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *messaging.SendOptions) error {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	applySendOptions(params, opts)
	return c.call(ctx, c.api, "sendMessage", params, nil)
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *messaging.SendOptions) error {
	params := map[string]any{
		"chat_id": chatID,
		"photo":   photo,
	}
	if caption != "" {
		params["caption"] = caption
	}
	applySendOptions(params, opts)
	return c.call(ctx, c.api, "sendPhoto", params, nil)
}

func (c *Client) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error {
	params := map[string]any{
		"chat_id":   chatID,
		"latitude":  latitude,
		"longitude": longitude,
	}
	return c.call(ctx, c.api, "sendLocation", params, nil)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	params := map[string]any{
		"callback_query_id": callbackQueryID,
	}
	if text != "" {
		params["text"] = text
	}
	return c.call(ctx, c.api, "answerCallbackQuery", params, nil)
}

// SetWebhook registers the delivery endpoint. The secret token is echoed by
// the platform on every delivered event so the receiving endpoint can reject
// forged deliveries.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	params := map[string]any{
		"url": url,
	}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	return c.call(ctx, c.api, "setWebhook", params, nil)
}

type fileResult struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// GetFile resolves an opaque file reference to a transient download path and
// the reported size.
func (c *Client) GetFile(ctx context.Context, fileID string) (*media.FileInfo, error) {
	var result fileResult
	params := map[string]any{"file_id": fileID}
	if err := c.call(ctx, c.meta, "getFile", params, &result); err != nil {
		return nil, err
	}
	return &media.FileInfo{
		FilePath: result.FilePath,
		FileSize: result.FileSize,
	}, nil
}

// DownloadFile fetches the raw bytes behind a resolved file path.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgError.InternalServerError(fmt.Sprintf("failed to build download request: %v", err))
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, classifyTransportError("downloadFile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgError.UpstreamError(resp.StatusCode, "file content retrieval failed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("downloadFile", err)
	}
	return data, nil
}

func applySendOptions(params map[string]any, opts *messaging.SendOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		params["parse_mode"] = opts.ParseMode
	}
	if opts.ReplyToMessageID != 0 {
		params["reply_to_message_id"] = opts.ReplyToMessageID
	}
	if opts.DisableNotification {
		params["disable_notification"] = true
	}
}
