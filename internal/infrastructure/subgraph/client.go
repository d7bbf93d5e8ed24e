package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aavetx/internal/chains"
	"aavetx/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 15 * time.Second
	defaultBackoff = 250 * time.Millisecond
	maxBodyBytes   = 4 << 20
)

type Config struct {
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client queries lending subgraphs for the actions of a transaction.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retries    uint64
	backoff    time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		retries:    uint64(cfg.Retries),
		backoff:    cfg.Backoff,
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data   *domain.RawResult `json:"data"`
	Errors []graphQLError    `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("subgraph status %d", e.Code)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Fetch asks the chain's subgraph for at most one record of each action kind
// with the given hash. The bool is false when every list came back empty.
// Transport, status and decode failures are returned as errors, never as
// an empty result.
func (c *Client) Fetch(ctx context.Context, entry chains.Entry, hash string) (domain.RawResult, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer("aavetx/subgraph").Start(ctx, "subgraph.fetch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("chain", entry.Chain.String()),
		attribute.String("tx.hash", hash),
	)

	payload, err := json.Marshal(graphQLRequest{Query: BuildQuery(hash)})
	if err != nil {
		return domain.RawResult{}, false, err
	}

	var (
		decoded  graphQLResponse
		attempts int
	)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoff
	policy.MaxElapsedTime = c.timeout
	err = backoff.Retry(func() error {
		attempts++
		resp, err := c.post(ctx, entry.Endpoint, payload)
		if err != nil {
			var status *StatusError
			if errors.As(err, &status) && !status.retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			slog.Debug("subgraph attempt failed", "chain", entry.Chain, "attempt", attempts, "err", err)
			return err
		}
		decoded = resp
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx))
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.RawResult{}, false, fmt.Errorf("fetch %s: %w", entry.Chain, err)
	}

	if decoded.Data == nil {
		if len(decoded.Errors) > 0 {
			err := fmt.Errorf("fetch %s: %w", entry.Chain, joinErrors(decoded.Errors))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return domain.RawResult{}, false, err
		}
		return domain.RawResult{}, false, nil
	}
	if len(decoded.Errors) > 0 {
		slog.Warn("subgraph returned partial data", "chain", entry.Chain, "err", joinErrors(decoded.Errors))
	}
	if decoded.Data.Empty() {
		return domain.RawResult{}, false, nil
	}
	return *decoded.Data, true, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) (graphQLResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return graphQLResponse{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return graphQLResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return graphQLResponse{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("subgraph error body", "status", resp.StatusCode, "body", string(body))
		return graphQLResponse{}, &StatusError{Code: resp.StatusCode}
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return graphQLResponse{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return decoded, nil
}

const actionFields = "id hash timestamp amount amountUSD asset { symbol decimals id }"

// BuildQuery returns the combined query for all five action kinds. The hash
// is embedded as a JSON string literal, which is also a valid GraphQL string.
func BuildQuery(hash string) string {
	literal, _ := json.Marshal(hash)
	var b strings.Builder
	b.Grow(768)
	b.WriteString("{ ")
	for _, kind := range domain.ActionKinds {
		fmt.Fprintf(&b, "%s(first: 1, where: { hash: %s }) { %s", kind, literal, actionFields)
		if kind.HasAccount() {
			b.WriteString(" account { id }")
		}
		b.WriteString(" } ")
	}
	b.WriteString("}")
	return b.String()
}

func joinErrors(list []graphQLError) error {
	messages := make([]string, 0, len(list))
	for _, item := range list {
		messages = append(messages, item.Message)
	}
	return fmt.Errorf("graphql: %s", strings.Join(messages, "; "))
}
