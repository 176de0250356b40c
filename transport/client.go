package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/logger"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "bunq-go"

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, for example https://public-api.sandbox.bunq.com/v1.
	BaseURL string

	// UserAgent identifies the application. Defaults to DefaultUserAgent.
	UserAgent string

	// HTTP executes requests. Defaults to an *http.Client with a 30 second
	// timeout.
	HTTP Doer

	// Signer signs request bodies with the client private key.
	Signer httpsig.Signer

	// Logger receives request and integrity logs. Defaults to a discard logger.
	Logger *slog.Logger
}

// Client talks to the remote API. It holds no session state and is safe for
// concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      Doer
	signer    httpsig.Signer
	logger    *slog.Logger
}

// New creates a Client. A nil Signer is accepted only for clients that
// never send signed requests; signed calls then fail with httpsig.ErrNoSigner.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      cfg.HTTP,
		signer:    cfg.Signer,
		logger:    logger.OrDiscard(cfg.Logger),
	}

	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}

	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one API call. Body is JSON encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Call selects the signing and verification rules for Do.
type Call struct {
	// Sign attaches X-Bunq-Client-Signature to requests with a body.
	Sign bool

	// Token is sent as X-Bunq-Client-Authentication when non-empty.
	Token string

	// Verifier checks X-Bunq-Server-Signature. When nil the response is
	// returned unverified.
	Verifier httpsig.Verifier
}

// Response is a raw API response. Body holds exactly the received bytes and,
// when the call had a Verifier, those bytes have been verified.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Do performs one call. It never retries and never inspects the body beyond
// signature verification.
func (c *Client) Do(ctx context.Context, req Request, call Call) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path), reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	requestID := uuid.New().String()

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set(httpsig.HeaderClientRequestID, requestID)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if call.Token != "" {
		httpReq.Header.Set(httpsig.HeaderClientAuthentication, call.Token)
	}

	if call.Sign {
		if err := httpsig.SignRequest(httpReq, c.signer); err != nil {
			return nil, fmt.Errorf("transport: sign request: %w", err)
		}
	}

	log := c.logger.With(
		slog.String("request_id", requestID),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
	)

	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Debug("request failed", slog.Any("error", err))
		return nil, fmt.Errorf("transport: %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RequestID:  requestID,
	}

	if call.Verifier != nil {
		out.Body, err = httpsig.VerifyResponse(resp, call.Verifier)
		if err != nil {
			log.Error("response failed integrity check",
				slog.Int("status", resp.StatusCode),
				slog.Any("error", err),
			)

			return nil, err
		}
	} else {
		out.Body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: read response: %w", err)
		}
	}

	log.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return out, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// encodeBody returns the canonical JSON form of v, or nil when v is nil.
func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transport: encode body: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("transport: canonicalize body: %w", err)
	}

	return canonical, nil
}
