package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

var sshUserSchema = []string{
	`CREATE TABLE IF NOT EXISTS ssh_users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT        NOT NULL,
		fingerprint   TEXT        NOT NULL UNIQUE,
		is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// SSHUser is a public key allowed to open the terminal chat over SSH.
type SSHUser struct {
	ID          int64
	Username    string
	Fingerprint string
	LastLoginAt *time.Time
}

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

func (r *SSHUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.run-migrations")
	defer span.End()

	return runStatements(ctx, r.pool, "ssh_users", sshUserSchema)
}

// FindByFingerprint returns nil without error when no active user matches.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, fingerprint, last_login_at
		 FROM ssh_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var u SSHUser
	err := row.Scan(&u.ID, &u.Username, &u.Fingerprint, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SSHUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE ssh_users SET last_login_at = NOW() WHERE id = $1`,
		userID,
	)
	return err
}
