package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// noCardsSentinel is the card_id written to cardsToUsers at registration.
const noCardsSentinel = 0

// UserRecord is the persisted user row.
type UserRecord struct {
	Username     string
	PasswordHash string
	Overall      int
}

// User returns the session-safe projection of the record.
func (u UserRecord) User() User {
	return User{Username: u.Username, Overall: u.Overall}
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	// CreateUser stores the user and its cardsToUsers sentinel row atomically.
	// It returns ErrUsernameTaken when the username exists.
	CreateUser(ctx context.Context, username, passwordHash string) (*UserRecord, error)
	Ping(ctx context.Context) error
}

// PgUserRepository implements UserRepository on PostgreSQL.
type PgUserRepository struct {
	db DB
}

func NewPgUserRepository(db DB) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	const q = `SELECT username, password, overall FROM users WHERE username = $1`
	var u UserRecord
	if err := r.db.QueryRow(ctx, q, username).Scan(&u.Username, &u.PasswordHash, &u.Overall); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", ErrStoreUnavailable, err)
	}
	return &u, nil
}

func (r *PgUserRepository) CreateUser(ctx context.Context, username, passwordHash string) (*UserRecord, error) {
	const insertUser = `INSERT INTO users (username, password, overall) VALUES ($1, $2, 0) RETURNING username, password, overall`
	const insertCards = `INSERT INTO cardsToUsers (username_id, card_id) VALUES ($1, $2)`

	var u UserRecord
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertUser, username, passwordHash).Scan(&u.Username, &u.PasswordHash, &u.Overall); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertCards, username, noCardsSentinel)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrStoreUnavailable, err)
	}
	return &u, nil
}

func (r *PgUserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
