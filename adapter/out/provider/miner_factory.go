// Package provider implements the mail provider factory.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"jobminer/adapter/out/provider/gmail"
	"jobminer/core/port/out"
	"jobminer/pkg/httputil"
	"jobminer/pkg/ratelimit"
)

// GmailConfig holds the OAuth client and listing configuration for Gmail.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// SearchQuery narrows the listing at the provider before any local
	// filtering, e.g. a subject-phrase alternation. Empty means window-only.
	SearchQuery string

	// RatePerSecond caps API calls across all concurrent pipelines.
	RatePerSecond int
}

// Factory builds per-user Gmail provider handles sharing one rate limiter
// and one circuit breaker.
type Factory struct {
	cfg     *GmailConfig
	oauth   *oauth2.Config
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewFactory creates the factory with the shared protection around the
// Gmail API.
func NewFactory(cfg *GmailConfig, log zerolog.Logger) *Factory {
	logger := log.With().Str("component", "gmail_factory").Logger()

	rate := cfg.RatePerSecond
	if rate <= 0 {
		rate = 25
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
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
	}

	return &Factory{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gmailapi.GmailReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		limiter: ratelimit.New(rate, time.Second),
		breaker: gobreaker.NewCircuitBreaker(cbSettings),
		log:     logger,
	}
}

// ForUser binds a provider handle to one user's token. The oauth2 transport
// refreshes the token transparently using the tuned HTTP client underneath.
func (f *Factory) ForUser(ctx context.Context, token *oauth2.Token) (out.MailProvider, error) {
	base := httputil.NewClient(httputil.GmailClientConfig())
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := f.oauth.Client(ctx, token)

	service, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return gmail.NewProvider(service, f.cfg.SearchQuery, f.limiter, f.breaker), nil
}

var _ out.MailProviderFactory = (*Factory)(nil)
