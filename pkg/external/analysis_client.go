package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	analyzePath        = "/api/analyze"
	validateVCFPath    = "/api/validate-vcf"
	supportedDrugsPath = "/api/supported-drugs"
	healthPath         = "/api/health"

	maxResponseBytes = 64 << 20
)

// Messages surfaced to the dashboard when the service cannot answer.
const (
	MsgServiceUnavailable = "analysis service unavailable"
	MsgServiceUnreachable = "could not reach the analysis service"
	MsgServiceTimeout     = "analysis service timed out"
	MsgInvalidResponse    = "analysis service returned an invalid response"
)

// AnalysisClient talks to the pharmacogenomic analysis service.
// Every call is rate limited and runs through a circuit breaker.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryCount int
	logger     *logrus.Logger
}

// NewAnalysisClient creates a new analysis service client
func NewAnalysisClient(config domain.AnalysisServiceConfig, logger *logrus.Logger) *AnalysisClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}
	threshold := config.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	breakerTimeout := config.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	c := &AnalysisClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit:  rate.NewLimiter(rate.Limit(rps), 1),
		retryCount: config.RetryCount,
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "AnalysisService",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx responses do not count against the breaker.
		IsSuccessful: func(err error) bool {
			var svcErr *domain.ServiceError
			if errors.As(err, &svcErr) {
				return svcErr.StatusCode >= 400 && svcErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// Analyze uploads a VCF file with the drugs to analyze and returns the per-drug records.
// Analysis is never retried: each attempt runs the full pipeline on the service side.
func (c *AnalysisClient) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.BackendAnalysisResponse, error) {
	body, contentType, err := encodeUpload(req.FileName, req.Content, map[string]string{
		"drugs": strings.Join(req.Drugs, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis upload: %w", err)
	}

	var resp domain.BackendAnalysisResponse
	if err := c.execute(ctx, http.MethodPost, analyzePath, body, contentType, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateVCF asks the service to check an upload without analyzing it.
func (c *AnalysisClient) ValidateVCF(ctx context.Context, fileName string, content []byte) (*domain.VCFValidationResult, error) {
	body, contentType, err := encodeUpload(fileName, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation upload: %w", err)
	}

	var resp domain.VCFValidationResult
	if err := c.execute(ctx, http.MethodPost, validateVCFPath, body, contentType, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SupportedDrugs returns the service's drug panel.
func (c *AnalysisClient) SupportedDrugs(ctx context.Context) ([]domain.SupportedDrug, error) {
	var resp struct {
		Drugs []domain.SupportedDrug `json:"drugs"`
	}
	if err := c.executeWithRetry(ctx, supportedDrugsPath, &resp); err != nil {
		return nil, err
	}
	if resp.Drugs == nil {
		resp.Drugs = []domain.SupportedDrug{}
	}
	return resp.Drugs, nil
}

// Health returns the service's health report.
func (c *AnalysisClient) Health(ctx context.Context) (*domain.ServiceHealth, error) {
	var resp domain.ServiceHealth
	if err := c.executeWithRetry(ctx, healthPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BreakerState returns the current circuit breaker state
func (c *AnalysisClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// executeWithRetry retries idempotent GETs on server-side failures.
func (c *AnalysisClient) executeWithRetry(ctx context.Context, path string, out interface{}) error {
	var err error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return toServiceError(ctx.Err())
			}
		}

		err = c.execute(ctx, http.MethodGet, path, nil, "", out)
		if err == nil || !retryable(err) {
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt + 1,
		}).WithError(err).Debug("Retrying analysis service request")
	}
	return err
}

func (c *AnalysisClient) execute(ctx context.Context, method, path string, body []byte, contentType string, out interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return toServiceError(err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, body, contentType, out)
	})
	if err != nil {
		return toServiceError(err)
	}
	return nil
}

func (c *AnalysisClient) do(ctx context.Context, method, path string, body []byte, contentType string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Analysis service call completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(resp.StatusCode, data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    MsgInvalidResponse,
			Err:        err,
		}
	}
	return nil
}

// errorDetail extracts the human-readable message of an error body. The service
// answers {"detail": "..."} or, for request validation failures, a list of
// {"msg": "..."} objects under detail.
func errorDetail(status int, body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if m := strings.TrimSpace(item.Msg); m != "" {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed: %s", strings.ToLower(text))
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// toServiceError reduces any failure to a single *domain.ServiceError.
func toServiceError(err error) error {
	var svcErr *domain.ServiceError
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ServiceError{Message: MsgServiceUnavailable, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ServiceError{Message: MsgServiceTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &domain.ServiceError{Message: MsgServiceTimeout, Err: err}
		}
		return &domain.ServiceError{Message: MsgServiceUnreachable, Err: err}
	}
}

func retryable(err error) bool {
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		return false
	}
	if svcErr.Message == MsgServiceUnavailable {
		return false
	}
	return svcErr.StatusCode == 0 || svcErr.StatusCode >= 500
}

func encodeUpload(fileName string, content []byte, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
