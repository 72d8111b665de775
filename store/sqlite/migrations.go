package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Clubhouse store (SQLite).
// Unsigned 64-bit values (ticks, balances, ids) are stored as the signed
// INTEGER with the same bit pattern.
var Migrations = migrate.NewGroup("clubhouse")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_clubhouse_clubs",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS clubhouse_clubs (
    id         INTEGER PRIMARY KEY,
    owner      TEXT NOT NULL,
    fee        INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_clubhouse_clubs_owner ON clubhouse_clubs (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS clubhouse_clubs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_clubhouse_membership_tables",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS clubhouse_requests (
    account      TEXT NOT NULL,
    club_id      INTEGER NOT NULL,
    cost         INTEGER NOT NULL DEFAULT 0,
    duration     INTEGER NOT NULL DEFAULT 0,
    is_renewal   INTEGER NOT NULL DEFAULT 0,
    requested_at INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (account, club_id)
);

CREATE TABLE IF NOT EXISTS clubhouse_memberships (
    account      TEXT NOT NULL,
    club_id      INTEGER NOT NULL,
    is_renewal   INTEGER NOT NULL DEFAULT 0,
    admitted_at  INTEGER NOT NULL DEFAULT 0,
    expires_at   INTEGER NOT NULL DEFAULT 0,
    expiry_index INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (account, club_id)
);

CREATE INDEX IF NOT EXISTS idx_clubhouse_memberships_club ON clubhouse_memberships (club_id, account);

CREATE TABLE IF NOT EXISTS clubhouse_expired (
    account     TEXT NOT NULL,
    club_id     INTEGER NOT NULL,
    was_renewal INTEGER NOT NULL DEFAULT 0,
    expired_at  INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (account, club_id)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS clubhouse_expired;
DROP TABLE IF EXISTS clubhouse_memberships;
DROP TABLE IF EXISTS clubhouse_requests;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_clubhouse_expiry_tables",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS clubhouse_buckets (
    tick  INTEGER PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS clubhouse_entries (
    tick    INTEGER NOT NULL,
    idx     INTEGER NOT NULL,
    account TEXT NOT NULL,
    club_id INTEGER NOT NULL,
    PRIMARY KEY (tick, idx)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS clubhouse_entries;
DROP TABLE IF EXISTS clubhouse_buckets;
`)
				return err
			},
		},
	)
}
