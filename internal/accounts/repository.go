package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, name, email, password_hash, role, org_id, class_id, batch_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.OrgID, &a.ClassID, &a.BatchID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.Role = parsed
	return &a, nil
}

// Get fetches one account within scope.
func (r *Repository) Get(ctx context.Context, scope authz.Scope, id int64) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	return scanAccount(r.pool.QueryRow(ctx, query, args...))
}

// List returns accounts within scope, optionally filtered by role.
func (r *Repository) List(ctx context.Context, scope authz.Scope, role authz.Role, page shared.Pagination) ([]Account, int, error) {
	var conditions []string
	var args []any
	if scope.Restricted {
		args = append(args, scope.OrgID)
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if role != "" {
		args = append(args, string(role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts%s ORDER BY id LIMIT $%d OFFSET $%d`,
		accountColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, a *Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, role, org_id, class_id, batch_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		a.Name, a.Email, a.PasswordHash, string(a.Role), a.OrgID, a.ClassID, a.BatchID, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update mutates one account within scope, returning the affected count.
// The password hash is only rewritten when non-empty.
func (r *Repository) Update(ctx context.Context, scope authz.Scope, a *Account) (int64, error) {
	var sets []string
	var args []any
	args = append(args, a.Name)
	sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	args = append(args, a.Email)
	sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	args = append(args, a.ClassID)
	sets = append(sets, fmt.Sprintf("class_id = $%d", len(args)))
	args = append(args, a.BatchID)
	sets = append(sets, fmt.Sprintf("batch_id = $%d", len(args)))
	args = append(args, a.IsActive)
	sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	if a.PasswordHash != "" {
		args = append(args, a.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, a.ID)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if scope.Restricted {
		args = append(args, scope.OrgID)
		query += fmt.Sprintf(` AND org_id = $%d`, len(args))
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOne removes one account within scope, returning the affected
// count. Foreign key failures surface raw for classification.
func (r *Repository) DeleteOne(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM accounts WHERE id = $1`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteStudent removes one student account within scope. Rows holding
// other roles never match, so they report as not found.
func (r *Repository) DeleteStudent(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	query := `DELETE FROM accounts WHERE id = $1 AND role = 'student'`
	args := []any{id}
	if scope.Restricted {
		query += ` AND org_id = $2`
		args = append(args, scope.OrgID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
