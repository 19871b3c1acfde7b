package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/shared"
)

// SQLiteStore implements [UserStore] over a local sqlite database. Used for
// development and self-hosted deployments; schema installed by
// [shared.RunMigrations].
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new [SQLiteStore] with the given database connection
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListEnabledUsers returns credentials for all users with spotify_connected set.
func (s *SQLiteStore) ListEnabledUsers(ctx context.Context) ([]models.UserCredential, error) {
	query := `
		SELECT id,
		       COALESCE(spotify_access_token, ''),
		       COALESCE(spotify_refresh_token, ''),
		       COALESCE(spotify_token_expires_at, '')
		FROM users
		WHERE spotify_connected = 1
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreQuery, err)
	}
	defer rows.Close()

	var users []models.UserCredential
	for rows.Next() {
		var user models.UserCredential
		if err := rows.Scan(&user.UserID, &user.AccessToken, &user.RefreshToken, &user.TokenExpiresAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan user: %v", shared.ErrStoreQuery, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreQuery, err)
	}

	return users, nil
}

// UpdateUser builds an UPDATE statement from the provided fields only, so
// absent columns keep their stored values.
func (s *SQLiteStore) UpdateUser(ctx context.Context, userID string, fields models.UpdateFields) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic column order keeps statements stable for logs and tests.
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, column := range columns {
		assignments = append(assignments, column+" = ?")
		args = append(args, fields[column])
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(assignments, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreWrite, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreWrite, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user not found: %s", shared.ErrStoreWrite, userID)
	}

	return nil
}
