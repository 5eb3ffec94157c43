package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"interviewcoach/internal/analysis"
	"interviewcoach/internal/config"
	"interviewcoach/internal/logging"
	"interviewcoach/internal/services"
	"interviewcoach/internal/transcode"
)

const (
	DefaultFieldName = "file"
	DefaultFilename  = "interview.mp4"
)

// Client posts delivery artifacts to the analysis endpoint.
type Client struct {
	endpoint  string
	fieldName string
	http      *http.Client
	logger    *slog.Logger
}

// Option customizes a client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithFieldName overrides the multipart field carrying the artifact.
func WithFieldName(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.fieldName = strings.TrimSpace(name)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a client for endpoint. The default HTTP client has no
// timeout; only the caller's context bounds a request.
func NewClient(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:  strings.TrimSpace(endpoint),
		fieldName: DefaultFieldName,
		http:      &http.Client{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "uploader")
	return client
}

// NewClientFromConfig builds a client from the [analysis] section.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return NewClient(cfg.Analysis.Endpoint, WithFieldName(cfg.Analysis.FieldName), WithLogger(logger))
}

// Endpoint returns the target URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Upload submits artifact in a single multipart request and parses the
// response. Every failure is a *services.UploadError.
func (c *Client) Upload(ctx context.Context, artifact transcode.Artifact, filename string) (*analysis.Result, error) {
	if c == nil {
		return nil, &services.UploadError{Err: fmt.Errorf("nil client")}
	}
	if c.endpoint == "" {
		return nil, &services.UploadError{Err: fmt.Errorf("analysis endpoint not configured")}
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = DefaultFilename
	}

	body, contentType, err := c.encode(artifact, filename)
	if err != nil {
		return nil, &services.UploadError{Err: err}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &services.UploadError{Err: fmt.Errorf("build request: %w", err)}
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json")

	started := time.Now()
	c.logger.Debug("uploading artifact",
		logging.String("endpoint", c.endpoint),
		logging.Int("bytes", len(artifact.Data)),
		logging.String("filename", filename),
	)
	resp, err := c.http.Do(request)
	if err != nil {
		return nil, &services.UploadError{Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &services.UploadError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &services.UploadError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	result, err := analysis.Parse(payload)
	if err != nil {
		return nil, &services.UploadError{StatusCode: resp.StatusCode, Body: string(payload), Err: err}
	}
	c.logger.Info("analysis received",
		logging.Int("status", resp.StatusCode),
		logging.Int("response_bytes", len(payload)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (c *Client) encode(artifact transcode.Artifact, filename string) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, c.fieldName, filename))
	contentType := artifact.MIMEType
	if contentType == "" {
		contentType = transcode.DeliveryMIMEType
	}
	header.Set("Content-Type", contentType)

	field, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file field: %w", err)
	}
	if _, err := field.Write(artifact.Data); err != nil {
		return nil, "", fmt.Errorf("write artifact: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
