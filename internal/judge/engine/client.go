// Package engine is the HTTP client for the remote judge server.
package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"huebre/internal/judge/lang"
	"huebre/internal/judge/model"
	"huebre/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultJudgeTimeout = 60 * time.Second

// Config holds judge server connection settings.
type Config struct {
	// Endpoint is the judge URL, e.g. "http://judge-server:8080/judge".
	Endpoint string `yaml:"endpoint"`

	// Token is the shared secret. Only its sha256 digest goes on the wire.
	Token string `yaml:"token"`

	// Timeout bounds one judging call end to end. Default 60s.
	Timeout time.Duration `yaml:"timeout"`
}

// Client is a stateless judge server client. One Judge call issues exactly
// one outbound POST with no retries; a failed call surfaces as a
// terminal outcome and the caller owns any retry policy.
type Client struct {
	endpoint    string
	tokenDigest string
	http        *http.Client
}

// NewClient creates a judge server client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("judge server endpoint is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("judge server token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}
	digest := sha256.Sum256([]byte(cfg.Token))
	return &Client{
		endpoint:    cfg.Endpoint,
		tokenDigest: hex.EncodeToString(digest[:]),
		http:        &http.Client{Timeout: timeout},
	}, nil
}

// Judge dispatches one run to the judge server and returns its
// per-test-case result array verbatim. Interpretation of the result codes
// is the verdict aggregator's job, not this layer's.
//
// All failures come back as *Error: InvalidRequest before any network
// call, Timeout/RequestError/UnknownError for transport-level trouble, or
// the server's own classifier (e.g. CompileError) with a best-effort
// message extracted from its payload.
func (c *Client) Judge(ctx context.Context, req Request) ([]model.TestResult, error) {
	if !req.Source.valid() {
		return nil, &Error{Kind: KindInvalidRequest, Message: "test_case or test_case_id is required"}
	}

	profile := lang.Resolve(req.Language)
	body := wireRequest{
		Src:            req.Src,
		LanguageConfig: profile,
		MaxCPUTime:     req.MaxCPUTime,
		MaxMemory:      req.MaxMemory,
		TestCase:       req.Source.inline,
		TestCaseID:     req.Source.ref,
		Output:         req.CaptureOutput,
		IOMode:         req.IOMode,
	}
	if req.SPJ != nil {
		body.SPJVersion = req.SPJ.Version
		body.SPJSrc = req.SPJ.Src
		body.SPJCompile = req.SPJ.Compile
		body.SPJRun = req.SPJ.Run
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknownError, Message: fmt.Sprintf("encode judge request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindUnknownError, Message: fmt.Sprintf("build judge request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Judge-Server-Token", c.tokenDigest)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindRequestError, Message: fmt.Sprintf("judge server returned status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	var envelope wireResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Kind: KindUnknownError, Message: fmt.Sprintf("decode judge response: %v", err)}
	}

	if envelope.Err != "" {
		message := extractErrorMessage(envelope.Data)
		logger.Warn(ctx, "judge server reported error",
			zap.String("kind", envelope.Err),
			zap.String("language", req.Language),
		)
		return nil, &Error{Kind: envelope.Err, Message: message}
	}

	var results []model.TestResult
	if err := json.Unmarshal(envelope.Data, &results); err != nil {
		return nil, &Error{Kind: KindUnknownError, Message: fmt.Sprintf("decode judge result data: %v", err)}
	}
	return results, nil
}

// classifyTransportError folds network failures into Timeout for anything
// timeout-shaped and RequestError for the rest.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindRequestError, Message: err.Error()}
}

// extractErrorMessage pulls a human-readable message out of the server's
// error payload, which is either a bare string or an object with a
// "message" field.
func extractErrorMessage(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		return plain
	}
	var wrapped struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != "" {
		return wrapped.Message
	}
	return string(data)
}
