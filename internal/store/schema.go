package store

const Schema = `
CREATE TABLE IF NOT EXISTS sync_jobs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL,
	current_service TEXT NOT NULL DEFAULT '',
	current_phase TEXT NOT NULL DEFAULT '',
	total_events INTEGER NOT NULL DEFAULT 0,
	processed_events INTEGER NOT NULL DEFAULT 0,
	matched_events INTEGER NOT NULL DEFAULT 0,
	percent REAL NOT NULL DEFAULT 0,
	error TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

-- Single-flight: at most one active sync job per user
CREATE UNIQUE INDEX IF NOT EXISTS idx_sync_jobs_active_user ON sync_jobs(user_id)
WHERE status IN ('pending', 'in_progress');

CREATE INDEX IF NOT EXISTS idx_sync_jobs_user ON sync_jobs(user_id);

CREATE TABLE IF NOT EXISTS sync_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	service TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	tracks_fetched INTEGER NOT NULL DEFAULT 0,
	tracks_matched INTEGER NOT NULL DEFAULT 0,
	records_created INTEGER NOT NULL DEFAULT 0,
	records_updated INTEGER NOT NULL DEFAULT 0,
	artists_stored INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',

	FOREIGN KEY (job_id) REFERENCES sync_jobs(id)
);

CREATE INDEX IF NOT EXISTS idx_sync_results_job ON sync_results(job_id);

-- Reference catalog. Populated externally; read-only from this application.
CREATE TABLE IF NOT EXISTS catalog_songs (
	id TEXT PRIMARY KEY,
	artist_id TEXT NOT NULL,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	norm_artist TEXT NOT NULL,
	norm_title TEXT NOT NULL,
	decade INTEGER NOT NULL DEFAULT 0,
	genres TEXT NOT NULL DEFAULT '[]',
	popularity INTEGER NOT NULL DEFAULT 0,
	brand_count INTEGER NOT NULL DEFAULT 0,
	explicit BOOLEAN NOT NULL DEFAULT 0,
	duration_sec INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_catalog_songs_norm ON catalog_songs(norm_artist, norm_title);
CREATE INDEX IF NOT EXISTS idx_catalog_songs_artist ON catalog_songs(artist_id);
CREATE INDEX IF NOT EXISTS idx_catalog_songs_popularity ON catalog_songs(popularity);

CREATE TABLE IF NOT EXISTS catalog_artists (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	norm_name TEXT NOT NULL,
	genres TEXT NOT NULL DEFAULT '[]',
	popularity INTEGER NOT NULL DEFAULT 0,
	peak_decade INTEGER NOT NULL DEFAULT 0,
	song_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_catalog_artists_norm ON catalog_artists(norm_name);
CREATE INDEX IF NOT EXISTS idx_catalog_artists_popularity ON catalog_artists(popularity);

-- Resolved taste records. One row per (user, catalog id); counts merge.
CREATE TABLE IF NOT EXISTS user_artists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	artist_id TEXT NOT NULL,
	name TEXT NOT NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	last_played_at DATETIME,
	saved BOOLEAN NOT NULL DEFAULT 0,
	sources TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,

	UNIQUE (user_id, artist_id),
	FOREIGN KEY (artist_id) REFERENCES catalog_artists(id)
);

CREATE INDEX IF NOT EXISTS idx_user_artists_user ON user_artists(user_id);
CREATE INDEX IF NOT EXISTS idx_user_artists_artist ON user_artists(artist_id);

CREATE TABLE IF NOT EXISTS user_songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	song_id TEXT NOT NULL,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	last_played_at DATETIME,
	saved BOOLEAN NOT NULL DEFAULT 0,
	sources TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,

	UNIQUE (user_id, song_id),
	FOREIGN KEY (song_id) REFERENCES catalog_songs(id)
);

CREATE INDEX IF NOT EXISTS idx_user_songs_user ON user_songs(user_id);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
