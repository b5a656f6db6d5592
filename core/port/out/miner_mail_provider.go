// Package out defines outbound ports (driven ports) for the pipeline.
package out

import (
	"context"

	"golang.org/x/oauth2"

	"jobminer/core/domain"
)

// MessagePage is one page of a provider's message listing. An empty
// NextPageToken terminates the pagination.
type MessagePage struct {
	IDs           []string
	NextPageToken string
}

// ListQuery narrows a provider listing to the fetch window.
type ListQuery struct {
	NewerThanHours int
	PageSize       int
	PageToken      string
}

// MailProvider is the outbound port for the mail provider API. A provider
// handle is bound to one user's credentials for the duration of a cycle.
type MailProvider interface {
	// ListMessageIDs returns one page of candidate message IDs.
	ListMessageIDs(ctx context.Context, query *ListQuery) (*MessagePage, error)

	// GetMessage retrieves the full payload for one ID. Returns a
	// MALFORMED_MESSAGE error when the payload cannot be decoded.
	GetMessage(ctx context.Context, messageID string) (*domain.RawMessage, error)
}

// MailProviderFactory binds a provider handle to one user's credentials.
type MailProviderFactory interface {
	ForUser(ctx context.Context, token *oauth2.Token) (MailProvider, error)
}
