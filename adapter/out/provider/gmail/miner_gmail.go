// Package gmail provides the Gmail API mail provider.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"jobminer/core/domain"
	"jobminer/core/port/out"
	"jobminer/pkg/apperr"
	"jobminer/pkg/ratelimit"
)

// Provider implements out.MailProvider for Gmail. A provider handle is bound
// to one user's credentials for the duration of a cycle.
type Provider struct {
	service *gmail.Service
	query   string
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker

	mu         sync.Mutex
	prefetched map[string]*domain.RawMessage
}

// NewProvider wraps an authenticated Gmail service. extraQuery narrows the
// listing beyond the fetch window (subject phrases); limiter and breaker are
// shared across all handles for the same upstream.
func NewProvider(service *gmail.Service, extraQuery string, limiter *ratelimit.Limiter, breaker *gobreaker.CircuitBreaker) *Provider {
	return &Provider{
		service:    service,
		query:      strings.TrimSpace(extraQuery),
		limiter:    limiter,
		breaker:    breaker,
		prefetched: make(map[string]*domain.RawMessage),
	}
}

// ListMessageIDs returns one page of candidate IDs and warms the payload
// cache with bounded parallel fetches, so the subsequent per-ID GetMessage
// calls mostly hit memory.
func (p *Provider) ListMessageIDs(ctx context.Context, query *out.ListQuery) (*out.MessagePage, error) {
	q := fmt.Sprintf("newer_than:%dh", query.NewerThanHours)
	if p.query != "" {
		q = p.query + " " + q
	}

	req := p.service.Users.Messages.List("me").Q(q)
	if query.PageToken != "" {
		req = req.PageToken(query.PageToken)
	}
	if query.PageSize > 0 {
		req = req.MaxResults(int64(query.PageSize))
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := execute(p.breaker, func() (*gmail.ListMessagesResponse, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, translateGmailError(err, "")
	}

	ids := make([]string, len(resp.Messages))
	for i, m := range resp.Messages {
		ids[i] = m.Id
	}

	p.prefetch(ctx, ids)

	return &out.MessagePage{IDs: ids, NextPageToken: resp.NextPageToken}, nil
}

// prefetch pulls full payloads with bounded concurrency. Failures are left
// for GetMessage to surface with proper retry handling.
func (p *Provider) prefetch(ctx context.Context, ids []string) {
	const maxConcurrency = 5
	semaphore := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		go func(msgID string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			raw, err := p.fetch(ctx, msgID)
			if err != nil {
				return
			}
			p.mu.Lock()
			p.prefetched[msgID] = raw
			p.mu.Unlock()
		}(id)
	}
	wg.Wait()
}

// GetMessage retrieves the full payload for one ID, serving from the
// prefetch cache when warm.
func (p *Provider) GetMessage(ctx context.Context, messageID string) (*domain.RawMessage, error) {
	p.mu.Lock()
	raw, ok := p.prefetched[messageID]
	if ok {
		delete(p.prefetched, messageID)
	}
	p.mu.Unlock()
	if ok {
		return raw, nil
	}
	return p.fetch(ctx, messageID)
}

func (p *Provider) fetch(ctx context.Context, messageID string) (*domain.RawMessage, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	msg, err := execute(p.breaker, func() (*gmail.Message, error) {
		return p.service.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	})
	if err != nil {
		return nil, translateGmailError(err, messageID)
	}
	return parseMessage(msg)
}

// execute routes an API call through the shared circuit breaker.
func execute[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if breaker == nil {
		return fn()
	}
	v, err := breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// parseMessage converts a Gmail message into the domain tree. Base64 decode
// failure anywhere in the tree is a MALFORMED_MESSAGE.
func parseMessage(msg *gmail.Message) (*domain.RawMessage, error) {
	raw := &domain.RawMessage{
		ID:         msg.Id,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0).UTC(),
	}
	if msg.Payload == nil {
		return nil, apperr.MalformedMessage(fmt.Errorf("message %s has no payload", msg.Id), msg.Id)
	}

	for _, header := range msg.Payload.Headers {
		if header.Name == "Subject" {
			raw.Subject = header.Value
			break
		}
	}

	payload, err := parsePart(msg.Payload)
	if err != nil {
		return nil, apperr.MalformedMessage(err, msg.Id)
	}
	raw.Payload = payload
	return raw, nil
}

func parsePart(part *gmail.MessagePart) (*domain.MessagePart, error) {
	node := &domain.MessagePart{MimeType: part.MimeType}

	if part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s part: %w", part.MimeType, err)
		}
		node.Data = data
	}

	for _, sub := range part.Parts {
		child, err := parsePart(sub)
		if err != nil {
			return nil, err
		}
		node.Parts = append(node.Parts, child)
	}
	return node, nil
}

// translateGmailError maps API failures onto the error taxonomy.
func translateGmailError(err error, messageID string) error {
	if err == nil {
		return nil
	}
	if gerr, ok := err.(*googleapi.Error); ok {
		switch gerr.Code {
		case 401, 403:
			return apperr.AuthError(err, "")
		case 400, 404:
			if messageID != "" {
				return apperr.MalformedMessage(err, messageID)
			}
		}
	}
	return apperr.TransientNetwork(err, "gmail")
}

var _ out.MailProvider = (*Provider)(nil)
