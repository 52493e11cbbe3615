package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/platform/resilience"
)

const (
	eventRecalculated        = "standings.recalculated"
	eventRecalculationFailed = "standings.recalculation_failed"
)

var errNotifyTransient = crerr.New("webhook transient failure")

type WebhookPublisherConfig struct {
	WebhookURL     string
	Token          string
	Retries        int
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher posts recalculation outcomes to a subscriber endpoint.
// Delivery is at-least-once; the event id header lets receivers deduplicate.
type WebhookPublisher struct {
	client         *http.Client
	webhookURL     string
	token          string
	retries        int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *logging.Logger) *WebhookPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("outcome webhook circuit state changed", "from", string(from), "to", string(to))
	})

	return &WebhookPublisher{
		client: &http.Client{
			Timeout: timeout,
		},
		webhookURL:     strings.TrimSpace(cfg.WebhookURL),
		token:          strings.TrimSpace(cfg.Token),
		retries:        cfg.Retries,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type outcomeEvent struct {
	Event      string    `json:"event"`
	JobID      string    `json:"job_id"`
	LeagueID   string    `json:"league_id"`
	Season     string    `json:"season"`
	Trigger    string    `json:"trigger"`
	Attempts   int       `json:"attempts"`
	EntryCount int       `json:"entry_count,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	WillRetry  bool      `json:"will_retry"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p *WebhookPublisher) PublishRecalculated(ctx context.Context, job calcjob.Job, entryCount int) error {
	return p.publish(ctx, outcomeEvent{
		Event:      eventRecalculated,
		JobID:      job.ID,
		LeagueID:   job.LeagueID,
		Season:     job.Season,
		Trigger:    job.Trigger,
		Attempts:   job.Attempts,
		EntryCount: entryCount,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WebhookPublisher) PublishRecalculationFailed(ctx context.Context, job calcjob.Job, cause string, willRetry bool) error {
	return p.publish(ctx, outcomeEvent{
		Event:      eventRecalculationFailed,
		JobID:      job.ID,
		LeagueID:   job.LeagueID,
		Season:     job.Season,
		Trigger:    job.Trigger,
		Attempts:   job.Attempts,
		Cause:      cause,
		WillRetry:  willRetry,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WebhookPublisher) publish(ctx context.Context, event outcomeEvent) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("outcome webhook is temporarily unavailable: %w", err)
		}
	}

	webhookURL, err := validateHTTPURL(p.webhookURL)
	if err != nil {
		return crerr.Wrap(err, "invalid NOTIFY_WEBHOOK_URL")
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal outcome event")
	}

	eventID := fmt.Sprintf("%s-attempt-%d-%s", event.JobID, event.Attempts, event.Event)
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildWebhookCurlPreview(webhookURL, eventID, bodyText, p.token != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", webhookURL),
			attribute.String("webhook.event", event.Event),
			attribute.String("webhook.event_id", eventID),
			attribute.String("webhook.request_body", bodyText),
			attribute.String("webhook.request_curl_preview", curlPreview),
		)
	}
	p.logger.InfoContext(ctx, "webhook publish request",
		"event", event.Event, "event_id", eventID, "url", webhookURL)

	callErr := p.deliver(ctx, webhookURL, eventID, body)
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	p.logger.InfoContext(ctx, "webhook event published", "event", event.Event, "event_id", eventID)
	return nil
}

func (p *WebhookPublisher) deliver(ctx context.Context, webhookURL, eventID string, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, strings.NewReader(string(body)))
		if err != nil {
			return crerr.Wrap(err, "create webhook request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Event-Id", eventID)
		if p.token != "" {
			req.Header.Set("X-Webhook-Token", p.token)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: post webhook url=%s: %v", errNotifyTransient, webhookURL, err)
		} else {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			if resp.StatusCode/100 == 2 {
				return nil
			}
			if isNotifyRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: post webhook status=%d url=%s body=%s",
					errNotifyTransient, resp.StatusCode, webhookURL, strings.TrimSpace(string(raw)))
			} else {
				return fmt.Errorf("post webhook status=%d url=%s body=%s",
					resp.StatusCode, webhookURL, strings.TrimSpace(string(raw)))
			}
		}

		if attempt == p.retries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("webhook request failed")
	}
	return lastErr
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildWebhookCurlPreview(webhookURL, eventID, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(webhookURL))
	appendFlagHeader("Content-Type: application/json")
	appendFlagHeader("X-Event-Id: " + eventID)
	if withToken {
		appendFlagHeader("X-Webhook-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (p *WebhookPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	if isNotifyCircuitFailure(err) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isNotifyCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errNotifyTransient)
}

func isNotifyRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
