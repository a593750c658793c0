package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-channel-identity/internal/model"
)

const accountColumns = `id, username, email, full_name, password_hash, avatar_url, cover_url,
	refresh_token, created_at, updated_at`

const uniqueViolation = "23505"

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	a, err := scanAccount(row)
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by username: %w", err)
	}
	return a, nil
}

// FindByUsernameOrEmail returns the first account matching either field.
// Empty arguments never match.
func (r *AccountRepository) FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE ($1::text <> '' AND lower(username) = lower($1::text))
		    OR ($2::text <> '' AND lower(email) = lower($2::text))
		 ORDER BY created_at
		 LIMIT 1`,
		strings.TrimSpace(username), strings.TrimSpace(email))
	a, err := scanAccount(row)
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by username or email: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, full_name, password_hash, avatar_url, cover_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Username, a.Email, a.FullName, a.PasswordHash, a.AvatarURL, a.CoverURL, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Update(ctx context.Context, id string, patch model.AccountPatch) (model.Account, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	query, args := buildAccountUpdate(id, patch)
	a, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if isUniqueViolation(err) {
		return model.Account{}, model.ErrAccountExists
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

// SwapRefreshToken replaces the stored refresh token only while it still
// equals expected. It reports false when another writer got there first.
func (r *AccountRepository) SwapRefreshToken(ctx context.Context, id string, expected string, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET refresh_token = $3, updated_at = now()
		 WHERE id = $1 AND refresh_token = $2`,
		id, expected, nullIfEmpty(next))
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func buildAccountUpdate(id string, patch model.AccountPatch) (string, []any) {
	sets := make([]string, 0, 7)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.CoverURL != nil {
		add("cover_url", *patch.CoverURL)
	}
	if patch.RefreshToken != nil {
		add("refresh_token", nullIfEmpty(*patch.RefreshToken))
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + accountColumns
	return query, args
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a            model.Account
		refreshToken *string
	)
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash, &a.AvatarURL,
		&a.CoverURL, &refreshToken, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	if refreshToken != nil {
		a.RefreshToken = *refreshToken
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
