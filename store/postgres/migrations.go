package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Clubhouse store.
// Unsigned 64-bit values (ticks, balances, ids) are stored as the signed
// BIGINT with the same bit pattern.
var Migrations = migrate.NewGroup("clubhouse")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_clubhouse_clubs",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS clubhouse_clubs (
    id         BIGINT PRIMARY KEY,
    owner      TEXT NOT NULL,
    fee        BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    club_id      BIGINT NOT NULL,
    cost         BIGINT NOT NULL DEFAULT 0,
    duration     INT NOT NULL DEFAULT 0,
    is_renewal   BOOLEAN NOT NULL DEFAULT FALSE,
    requested_at BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (account, club_id)
);

CREATE TABLE IF NOT EXISTS clubhouse_memberships (
    account      TEXT NOT NULL,
    club_id      BIGINT NOT NULL,
    is_renewal   BOOLEAN NOT NULL DEFAULT FALSE,
    admitted_at  BIGINT NOT NULL DEFAULT 0,
    expires_at   BIGINT NOT NULL DEFAULT 0,
    expiry_index BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (account, club_id)
);

CREATE INDEX IF NOT EXISTS idx_clubhouse_memberships_club ON clubhouse_memberships (club_id, account);

CREATE TABLE IF NOT EXISTS clubhouse_expired (
    account     TEXT NOT NULL,
    club_id     BIGINT NOT NULL,
    was_renewal BOOLEAN NOT NULL DEFAULT FALSE,
    expired_at  BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
    tick  BIGINT PRIMARY KEY,
    count BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS clubhouse_entries (
    tick    BIGINT NOT NULL,
    idx     BIGINT NOT NULL,
    account TEXT NOT NULL,
    club_id BIGINT NOT NULL,
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
