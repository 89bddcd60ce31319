package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL DEFAULT 'generic',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	data       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS standings (
	year            INTEGER NOT NULL,
	team_id         INTEGER NOT NULL,
	team_name       TEXT NOT NULL,
	conference      TEXT NOT NULL DEFAULT '',
	wins            INTEGER NOT NULL DEFAULT 0,
	losses          INTEGER NOT NULL DEFAULT 0,
	conf_wins       INTEGER NOT NULL DEFAULT 0,
	conf_losses     INTEGER NOT NULL DEFAULT 0,
	points_for      INTEGER NOT NULL DEFAULT 0,
	points_against  INTEGER NOT NULL DEFAULT 0,
	rank            INTEGER NOT NULL DEFAULT 0,
	conference_rank INTEGER NOT NULL DEFAULT 0,
	position        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (year, team_id)
);

CREATE TABLE IF NOT EXISTS games (
	id           INTEGER PRIMARY KEY,
	year         INTEGER NOT NULL,
	week         INTEGER NOT NULL,
	home_team_id INTEGER NOT NULL,
	away_team_id INTEGER NOT NULL,
	home_team    TEXT NOT NULL,
	away_team    TEXT NOT NULL,
	home_score   INTEGER NOT NULL DEFAULT 0,
	away_score   INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'scheduled',
	kickoff_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_standings_year ON standings(year, position);
CREATE INDEX IF NOT EXISTS idx_games_year_week ON games(year, week);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
