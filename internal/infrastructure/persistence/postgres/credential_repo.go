package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDENTIAL REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidAPIKey is returned when a presented key fails verification.
	ErrInvalidAPIKey = errors.New("postgres: invalid API key")

	// ErrKeyRevoked is returned when the key exists but was revoked.
	ErrKeyRevoked = errors.New("postgres: API key revoked")
)

// CredentialRepository verifies API keys against PostgreSQL. A key is
// presented as "<key_id>.<secret>"; only the bcrypt hash of the secret
// is ever stored.
type CredentialRepository struct {
	conn *Connection
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(conn *Connection) *CredentialRepository {
	return &CredentialRepository{conn: conn}
}

// VerifyKey checks a raw API key and returns the owning user.
func (r *CredentialRepository) VerifyKey(ctx context.Context, rawKey string) (shared.UserID, error) {
	keyID, secret, ok := strings.Cut(strings.TrimSpace(rawKey), ".")
	if !ok || keyID == "" || secret == "" {
		return "", ErrInvalidAPIKey
	}

	const query = `SELECT user_id, secret_hash, revoked_at FROM api_keys WHERE key_id = $1`

	var (
		userID     string
		secretHash string
		revokedAt  *time.Time
	)
	err := r.conn.QueryRow(ctx, query, keyID).Scan(&userID, &secretHash, &revokedAt)
	if err != nil {
		if IsNoRows(err) {
			return "", ErrInvalidAPIKey
		}
		return "", fmt.Errorf("postgres: verify key: %w", err)
	}
	if revokedAt != nil {
		return "", ErrKeyRevoked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
		return "", ErrInvalidAPIKey
	}
	return shared.UserID(userID), nil
}

// IssueKey creates a new API key for a user and returns the raw key.
// The raw key is shown once; only its hash survives.
func (r *CredentialRepository) IssueKey(ctx context.Context, userID shared.UserID) (string, error) {
	keyID, err := randomToken(8)
	if err != nil {
		return "", err
	}
	secret, err := randomToken(24)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("postgres: hash key secret: %w", err)
	}

	const query = `INSERT INTO api_keys (key_id, user_id, secret_hash) VALUES ($1, $2, $3)`
	if _, err := r.conn.Exec(ctx, query, keyID, string(userID), string(hash)); err != nil {
		return "", fmt.Errorf("postgres: issue key: %w", err)
	}

	return keyID + "." + secret, nil
}

// RevokeKey revokes a key by its key ID.
func (r *CredentialRepository) RevokeKey(ctx context.Context, keyID string, at time.Time) error {
	const query = `UPDATE api_keys SET revoked_at = $2 WHERE key_id = $1 AND revoked_at IS NULL`

	if _, err := r.conn.Exec(ctx, query, keyID, at); err != nil {
		return fmt.Errorf("postgres: revoke key: %w", err)
	}
	return nil
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("postgres: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
