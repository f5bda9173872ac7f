package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reputation awarded to an author per accepted entity.
const (
	postReputationAward    = 10
	commentReputationAward = 5
)

// upsertAuthor makes sure a user row exists for the given address and bumps
// the relevant counter and reputation in the same statement, so the stats
// update is atomic with the row creation. Addresses are stored lowercase.
// Returns the user's ID.
func upsertAuthor(
	ctx context.Context,
	tx *sql.Tx,
	address, username, counterColumn string,
	reputationAward int,
) (uuid.UUID, error) {
	// counterColumn is always one of the two constants below, never caller
	// input, so string interpolation is safe here.
	query := `
		INSERT INTO users (id, ethereum_address, username, ` + counterColumn + `, reputation, created_at)
		VALUES ($1, $2, NULLIF($3, ''), 1, $4, $5)
		ON CONFLICT (ethereum_address) DO UPDATE SET
			` + counterColumn + ` = users.` + counterColumn + ` + 1,
			reputation = users.reputation + $4,
			username = COALESCE(NULLIF($3, ''), users.username)
		RETURNING id
	`

	var userID uuid.UUID
	err := tx.QueryRowContext(
		ctx,
		query,
		uuid.New(),
		strings.ToLower(address),
		username,
		reputationAward,
		time.Now().UTC(),
	).Scan(&userID)
	if err != nil {
		return uuid.Nil, MapError(err)
	}

	return userID, nil
}
