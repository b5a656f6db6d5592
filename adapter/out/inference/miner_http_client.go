// Package inference implements the classification and entity-extraction
// service adapters.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"jobminer/pkg/apperr"
	"jobminer/pkg/httputil"
)

// modelClient is the shared HTTP plumbing of the two model adapters: JSON
// round-trip, bearer auth, circuit breaker, warming-up translation.
type modelClient struct {
	endpoint string
	apiToken string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

func newModelClient(name, endpoint, apiToken string, log zerolog.Logger) *modelClient {
	logger := log.With().Str("component", name).Logger()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// A warming model is not an outage.
			_, warming := apperr.WarmupHint(err)
			return err == nil || warming
		},
	}

	return &modelClient{
		endpoint: endpoint,
		apiToken: apiToken,
		client:   httputil.NewClient(httputil.InferenceClientConfig()),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		log:      logger,
	}
}

// warmingReply is the "model loading" body some inference backends return
// with a 503 and an estimated wait.
type warmingReply struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// post sends the request body and decodes the reply into result.
func (c *modelClient) post(ctx context.Context, body any, result any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, body, result)
	})
	return err
}

func (c *modelClient) roundTrip(ctx context.Context, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.TransientNetwork(err, "inference")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.TransientNetwork(err, "inference")
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		var warming warmingReply
		if jerr := json.Unmarshal(data, &warming); jerr == nil && warming.EstimatedTime > 0 {
			hint := time.Duration(warming.EstimatedTime * float64(time.Second))
			return apperr.ServiceWarmingUp("inference", hint)
		}
		return apperr.TransientNetwork(fmt.Errorf("inference unavailable: %s", data), "inference")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.AuthError(fmt.Errorf("inference rejected token: %s", data), "")
	case resp.StatusCode != http.StatusOK:
		return apperr.TransientNetwork(fmt.Errorf("inference status %d: %s", resp.StatusCode, data), "inference")
	}

	if err := json.Unmarshal(data, result); err != nil {
		return apperr.TransientNetwork(fmt.Errorf("decode inference reply: %w", err), "inference")
	}
	return nil
}
