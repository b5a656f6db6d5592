package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"

	"jobminer/core/port/out"
	"jobminer/pkg/apperr"
)

// tokenEntity mirrors the tokens table.
type tokenEntity struct {
	UserEmail    string       `db:"user_email"`
	AccessToken  string       `db:"access_token"`
	RefreshToken string       `db:"refresh_token"`
	TokenType    string       `db:"token_type"`
	Expiry       sql.NullTime `db:"expiry"`
}

// TokenAdapter implements out.CredentialStore using PostgreSQL. Refresh is
// the oauth2 transport's job; this adapter only loads what is stored.
type TokenAdapter struct {
	db *sqlx.DB
}

// NewTokenAdapter creates the adapter.
func NewTokenAdapter(db *sqlx.DB) *TokenAdapter {
	return &TokenAdapter{db: db}
}

// GetValidCredentials returns the stored token for one user. A missing row
// surfaces as AUTH_ERROR.
func (a *TokenAdapter) GetValidCredentials(ctx context.Context, userEmail string) (*oauth2.Token, error) {
	var entity tokenEntity
	query := `
		SELECT user_email, access_token, refresh_token, token_type, expiry
		FROM tokens
		WHERE user_email = $1`

	if err := a.db.GetContext(ctx, &entity, query, userEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.AuthError(err, userEmail)
		}
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "token lookup failed", 500)
	}

	tokenType := entity.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	token := &oauth2.Token{
		AccessToken:  entity.AccessToken,
		RefreshToken: entity.RefreshToken,
		TokenType:    tokenType,
	}
	if entity.Expiry.Valid {
		token.Expiry = entity.Expiry.Time
	}
	return token, nil
}

// ListUsers enumerates every user with stored credentials.
func (a *TokenAdapter) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	query := `SELECT user_email FROM tokens ORDER BY user_email`
	if err := a.db.SelectContext(ctx, &users, query); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "user enumeration failed", 500)
	}
	return users, nil
}

// SaveToken upserts a user's credentials after an OAuth exchange.
func (a *TokenAdapter) SaveToken(ctx context.Context, userEmail string, token *oauth2.Token) error {
	query := `
		INSERT INTO tokens (user_email, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_email) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE tokens.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = EXCLUDED.updated_at`

	var expiry sql.NullTime
	if !token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: token.Expiry, Valid: true}
	}
	_, err := a.db.ExecContext(ctx, query, userEmail, token.AccessToken, token.RefreshToken, token.TokenType, expiry, time.Now().UTC())
	if err != nil {
		return apperr.Wrap(err, apperr.CodeDatabaseError, "token save failed", 500)
	}
	return nil
}

var _ out.CredentialStore = (*TokenAdapter)(nil)
