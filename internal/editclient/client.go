// Package editclient sends edit requests to the remote image-editing
// service: one multipart POST carrying the source image and the prompt.
package editclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds one edit request. Image generation can take tens of
// seconds.
const DefaultTimeout = 120 * time.Second

// maxResponseBytes caps the response body; data URLs of large edits are a
// few megabytes.
const maxResponseBytes = 64 << 20

// Client calls the edit service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Options configures a Client.
type Options struct {
	Endpoint string
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a client for the given endpoint.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   opts.Endpoint,
		httpClient: httpClient,
	}
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Request is one edit submission.
type Request struct {
	Filename string
	MIMEType string
	Image    []byte
	// Prompt is sent as given; callers trim it.
	Prompt string
	// RequestID is sent as X-Request-ID. Generated when empty.
	RequestID string
}

// Response is a successful edit.
type Response struct {
	// Image is the result reference: a data URL, an absolute URL or a path
	// relative to the service.
	Image      string
	Filename   string
	StatusCode int
	RequestID  string
}

type successBody struct {
	Image          string `json:"image"`
	EditedImageURL string `json:"editedImageUrl"`
	URL            string `json:"url"`
	Filename       string `json:"filename"`
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Edit performs exactly one POST. Failures are *apperr.Error values:
// KindRequestRejected for non-2xx answers (Message holds the service's
// explanation, possibly empty) and KindTransportFailure for everything else.
func (c *Client) Edit(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, apperr.Transport("failed to build request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, apperr.Transport("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", req.RequestID)

	log.Info().
		Str("request_id", req.RequestID).
		Str("endpoint", c.endpoint).
		Str("filename", req.Filename).
		Int("image_bytes", len(req.Image)).
		Int("prompt_length", len(req.Prompt)).
		Msg("Sending edit request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.Transport("HTTP request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Transport("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Str("request_id", req.RequestID).
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Edit service returned error")
		return nil, apperr.Rejected(resp.StatusCode, parseErrorMessage(respBody),
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateString(string(respBody), 200)))
	}

	var result successBody
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperr.Transport("failed to parse response", err)
	}
	image := firstNonEmpty(result.Image, result.EditedImageURL, result.URL)
	if image == "" {
		return nil, apperr.Transport("no image returned in response",
			fmt.Errorf("body: %s", truncateString(string(respBody), 200)))
	}

	log.Info().
		Str("request_id", req.RequestID).
		Int("status", resp.StatusCode).
		Int("response_bytes", len(respBody)).
		Dur("duration", time.Since(startTime)).
		Msg("Edit request complete")

	return &Response{
		Image:      image,
		Filename:   result.Filename,
		StatusCode: resp.StatusCode,
		RequestID:  req.RequestID,
	}, nil
}

func encodeMultipart(req Request) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", fmt.Errorf("failed to write prompt: %w", err)
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(req.Filename)))
	h.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", fmt.Errorf("failed to write image: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"", "\r", "", "\n", "")

// escapeQuotes makes s safe inside a quoted header parameter. Line breaks
// are dropped since they would end the header.
func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// parseErrorMessage extracts detail, then message, then error. FastAPI
// validation errors carry detail as a list of {msg} objects.
func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return firstNonEmpty(detailText(eb.Detail), eb.Message, eb.Error)
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// truncateString truncates a string to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
