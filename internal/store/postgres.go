package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore is the authoritative progress store. All writes pass
// through serialized per-user, per-quest upserts; the engine never talks
// to it directly.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) EnsureUserByName(ctx context.Context, name string) (User, error) {
	const findUser = `
		SELECT id, display_name, email, player_level, bypass_level_requirement
		FROM users WHERE display_name = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, findUser, name).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PlayerLevel, &user.BypassLevelRequirement)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, classify("lookup user", err)
	}

	const insertUser = `
		INSERT INTO users (display_name, email)
		VALUES ($1, CONCAT(LOWER(REPLACE($1, ' ', '.')), '@local.questlog.dev'))
		RETURNING id, display_name, email, player_level, bypass_level_requirement
	`
	err = s.db.QueryRowContext(ctx, insertUser, name).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PlayerLevel, &user.BypassLevelRequirement)
	if err != nil {
		return User{}, classify("insert user", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT id, display_name, email, player_level, bypass_level_requirement
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PlayerLevel, &user.BypassLevelRequirement)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, classify("get user", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserSettings(ctx context.Context, userID string, playerLevel int, bypassLevel bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET player_level=$2, bypass_level_requirement=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, playerLevel, bypassLevel)
	if err != nil {
		return classify("update user settings", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListQuestProgress(ctx context.Context, userID string) ([]QuestProgressRow, error) {
	const query = `
		SELECT user_id, quest_id, status, completed_at, sync_source, updated_at
		FROM quest_progress WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify("list quest progress", err)
	}
	defer rows.Close()

	var out []QuestProgressRow
	for rows.Next() {
		var row QuestProgressRow
		if err := rows.Scan(&row.UserID, &row.QuestID, &row.Status, &row.CompletedAt, &row.SyncSource, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quest progress: %w", err)
		}
		out = append(out, row)
	}
	return out, classify("list quest progress", rows.Err())
}

func (s *PostgresStore) ListObjectiveProgress(ctx context.Context, userID string) ([]ObjectiveProgressRow, error) {
	const query = `
		SELECT user_id, objective_id, completed, current, target, updated_at
		FROM objective_progress WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify("list objective progress", err)
	}
	defer rows.Close()

	var out []ObjectiveProgressRow
	for rows.Next() {
		var row ObjectiveProgressRow
		if err := rows.Scan(&row.UserID, &row.ObjectiveID, &row.Completed, &row.Current, &row.Target, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan objective progress: %w", err)
		}
		out = append(out, row)
	}
	return out, classify("list objective progress", rows.Err())
}

// UpsertQuestProgress is the single write path for quest status: one
// atomic upsert per (user, quest). Last write observed wins, regardless
// of which client it came from.
func (s *PostgresStore) UpsertQuestProgress(ctx context.Context, row QuestProgressRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quest_progress (user_id, quest_id, status, completed_at, sync_source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, quest_id) DO UPDATE
			SET status=EXCLUDED.status,
				completed_at=EXCLUDED.completed_at,
				sync_source=EXCLUDED.sync_source,
				updated_at=NOW()
	`, row.UserID, row.QuestID, row.Status, row.CompletedAt, row.SyncSource)
	return classify("upsert quest progress", err)
}

func (s *PostgresStore) UpsertObjectiveProgress(ctx context.Context, row ObjectiveProgressRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objective_progress (user_id, objective_id, completed, current, target)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, objective_id) DO UPDATE
			SET completed=EXCLUDED.completed,
				current=EXCLUDED.current,
				target=EXCLUDED.target,
				updated_at=NOW()
	`, row.UserID, row.ObjectiveID, row.Completed, row.Current, row.Target)
	return classify("upsert objective progress", err)
}

// ResetProgress wipes all progress for a user and returns how many quest
// rows were removed.
func (s *PostgresStore) ResetProgress(ctx context.Context, userID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify("begin reset", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM quest_progress WHERE user_id=$1`, userID)
	if err != nil {
		return 0, classify("reset quest progress", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM objective_progress WHERE user_id=$1`, userID); err != nil {
		return 0, classify("reset objective progress", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, classify("commit reset", err)
	}
	count, _ := result.RowsAffected()
	return int(count), nil
}

func (s *PostgresStore) InsertCompanionToken(ctx context.Context, token CompanionToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companion_tokens (id, user_id, token_hash, token_hint, device_name, game_mode)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token.ID, token.UserID, token.TokenHash, token.TokenHint, token.DeviceName, token.GameMode)
	return classify("insert companion token", err)
}

// ListActiveCompanionTokens returns every non-revoked token across all
// users. Validation bcrypt-compares against each in turn; the hash
// cannot be queried directly.
func (s *PostgresStore) ListActiveCompanionTokens(ctx context.Context) ([]CompanionToken, error) {
	return s.listCompanionTokens(ctx, `
		SELECT id, user_id, token_hash, token_hint, device_name, game_mode, created_at, last_seen, revoked_at
		FROM companion_tokens WHERE revoked_at IS NULL
	`)
}

func (s *PostgresStore) ListUserCompanionTokens(ctx context.Context, userID string) ([]CompanionToken, error) {
	return s.listCompanionTokens(ctx, `
		SELECT id, user_id, token_hash, token_hint, device_name, game_mode, created_at, last_seen, revoked_at
		FROM companion_tokens WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at
	`, userID)
}

func (s *PostgresStore) listCompanionTokens(ctx context.Context, query string, args ...any) ([]CompanionToken, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list companion tokens", err)
	}
	defer rows.Close()

	var out []CompanionToken
	for rows.Next() {
		var t CompanionToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.TokenHint, &t.DeviceName, &t.GameMode, &t.CreatedAt, &t.LastSeen, &t.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan companion token: %w", err)
		}
		out = append(out, t)
	}
	return out, classify("list companion tokens", rows.Err())
}

func (s *PostgresStore) CountActiveCompanionTokens(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM companion_tokens WHERE user_id=$1 AND revoked_at IS NULL
	`, userID).Scan(&count)
	if err != nil {
		return 0, classify("count companion tokens", err)
	}
	return count, nil
}

// RevokeCompanionToken marks a token revoked. Returns false when the
// token does not exist or belongs to another user.
func (s *PostgresStore) RevokeCompanionToken(ctx context.Context, userID, tokenID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE companion_tokens SET revoked_at=NOW()
		WHERE id=$1 AND user_id=$2 AND revoked_at IS NULL
	`, tokenID, userID)
	if err != nil {
		return false, classify("revoke companion token", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (s *PostgresStore) TouchCompanionToken(ctx context.Context, tokenID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE companion_tokens SET last_seen=NOW() WHERE id=$1
	`, tokenID)
	return classify("touch companion token", err)
}
