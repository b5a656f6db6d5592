package out

import (
	"context"

	"golang.org/x/oauth2"
)

// CredentialStore reads stored provider credentials. Token refresh is an
// external concern; this port assumes credentials come back already valid and
// surfaces AUTH_ERROR when none exist.
type CredentialStore interface {
	// GetValidCredentials returns the stored token for one user.
	GetValidCredentials(ctx context.Context, userEmail string) (*oauth2.Token, error)

	// ListUsers enumerates every user with stored credentials.
	ListUsers(ctx context.Context) ([]string, error)
}
