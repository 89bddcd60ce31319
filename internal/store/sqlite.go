package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kmorse/huddle/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceNotifications replaces the cached notification set with the
// given server snapshot in a single transaction.
func (s *SQLiteStore) ReplaceNotifications(ctx context.Context, ns []model.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}

	const query = `
		INSERT INTO notifications (id, type, message, read, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range ns {
		var data string
		if n.Data != nil {
			raw, err := json.Marshal(n.Data)
			if err != nil {
				return fmt.Errorf("marshaling payload for notification %s: %w", n.ID, err)
			}
			data = string(raw)
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, string(n.Type), n.Message, boolToInt(n.Read),
			data, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications retrieves all cached notifications, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, type, message, read, data, created_at FROM notifications ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every cached notification as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}
	return nil
}

// DeleteNotification removes a cached notification by ID.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// UnreadNotificationCount returns the number of unread notifications.
func (s *SQLiteStore) UnreadNotificationCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE read = 0")
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// ReplaceStandings replaces the cached standings snapshot for a season,
// preserving the server's row order via the position column.
func (s *SQLiteStore) ReplaceStandings(ctx context.Context, year int, rows []model.StandingsRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM standings WHERE year = ?", year); err != nil {
		return fmt.Errorf("clearing standings for %d: %w", year, err)
	}

	const query = `
		INSERT INTO standings (
			year, team_id, team_name, conference,
			wins, losses, conf_wins, conf_losses,
			points_for, points_against, rank, conference_rank, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing standings insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err = stmt.ExecContext(ctx,
			year, r.TeamID, r.TeamName, r.Conference,
			r.Wins, r.Losses, r.ConferenceWins, r.ConferenceLosses,
			r.PointsFor, r.PointsAgainst, r.Rank, r.ConferenceRank, i,
		)
		if err != nil {
			return fmt.Errorf("inserting standings row for team %d: %w", r.TeamID, err)
		}
	}

	return tx.Commit()
}

// GetStandings retrieves the cached standings for a season in the
// server's original order.
func (s *SQLiteStore) GetStandings(ctx context.Context, year int) ([]model.StandingsRow, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT team_id, team_name, conference,
		       wins, losses, conf_wins, conf_losses,
		       points_for, points_against, rank, conference_rank
		FROM standings WHERE year = ? ORDER BY position`, year,
	)
	if err != nil {
		return nil, fmt.Errorf("querying standings for %d: %w", year, err)
	}
	defer rows.Close()

	var result []model.StandingsRow
	for rows.Next() {
		var r model.StandingsRow
		err := rows.Scan(
			&r.TeamID, &r.TeamName, &r.Conference,
			&r.Wins, &r.Losses, &r.ConferenceWins, &r.ConferenceLosses,
			&r.PointsFor, &r.PointsAgainst, &r.Rank, &r.ConferenceRank,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning standings row: %w", err)
		}
		r.Year = year
		result = append(result, r)
	}

	return result, rows.Err()
}

// ReplaceGames replaces the cached schedule for a season.
func (s *SQLiteStore) ReplaceGames(ctx context.Context, year int, games []model.Game) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM games WHERE year = ?", year); err != nil {
		return fmt.Errorf("clearing games for %d: %w", year, err)
	}

	const query = `
		INSERT INTO games (
			id, year, week, home_team_id, away_team_id,
			home_team, away_team, home_score, away_score, status, kickoff_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing game insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		_, err = stmt.ExecContext(ctx,
			g.ID, g.Year, g.Week, g.HomeTeamID, g.AwayTeamID,
			g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore,
			g.Status, g.KickoffAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting game %d: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// GetGames retrieves the cached schedule for a season ordered by week
// and kickoff time.
func (s *SQLiteStore) GetGames(ctx context.Context, year int) ([]model.Game, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, year, week, home_team_id, away_team_id,
		       home_team, away_team, home_score, away_score, status, kickoff_at
		FROM games WHERE year = ? ORDER BY week, kickoff_at, id`, year,
	)
	if err != nil {
		return nil, fmt.Errorf("querying games for %d: %w", year, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var (
			g         model.Game
			kickoffAt time.Time
		)
		err := rows.Scan(
			&g.ID, &g.Year, &g.Week, &g.HomeTeamID, &g.AwayTeamID,
			&g.HomeTeam, &g.AwayTeam, &g.HomeScore, &g.AwayScore,
			&g.Status, &kickoffAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		g.KickoffAt = kickoffAt
		games = append(games, g)
	}

	return games, rows.Err()
}

// GetValue retrieves a key-value entry. The second return is false when
// the key is absent.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading kv %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue inserts or replaces a key-value entry.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing kv %q: %w", key, err)
	}
	return nil
}

// DeleteValues removes the given keys in a single transaction, so a
// reader never observes a partial clear.
func (s *SQLiteStore) DeleteValues(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return fmt.Errorf("deleting kv %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		ntype     string
		readInt   int
		data      string
		createdAt time.Time
	)

	err := rows.Scan(&n.ID, &ntype, &n.Message, &readInt, &data, &createdAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.NotificationType(ntype)
	n.Read = readInt != 0
	n.CreatedAt = createdAt

	if data != "" {
		payload, err := model.DecodePayload(n.Type, []byte(data))
		if err != nil {
			return model.Notification{}, err
		}
		n.Data = payload
	}

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
