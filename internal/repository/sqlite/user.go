package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE NOT EXISTS (SELECT 1 FROM issues i WHERE i.author_id = users.id)
		  AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.author_id = users.id)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan users: %w", err)
	}
	return res.RowsAffected()
}

// upsertUser stores an embedded author. Non-empty fields of later payloads
// win; an id-only reference leaves the stored profile alone.
func upsertUser(ctx context.Context, q querier, user *model.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, username, name, avatar_url, web_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = COALESCE(NULLIF(excluded.username, ''), users.username),
			name = COALESCE(NULLIF(excluded.name, ''), users.name),
			avatar_url = COALESCE(NULLIF(excluded.avatar_url, ''), users.avatar_url),
			web_url = COALESCE(NULLIF(excluded.web_url, ''), users.web_url)`,
		user.ID, user.Username, user.Name, user.AvatarURL, user.WebURL)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// nullUser holds the LEFT JOIN users columns of an issue or comment row.
type nullUser struct {
	ID, Username, Name, AvatarURL, WebURL sql.NullString
}

func (u *nullUser) dest() []any {
	return []any{&u.ID, &u.Username, &u.Name, &u.AvatarURL, &u.WebURL}
}

func (u *nullUser) user() *model.User {
	if !u.ID.Valid {
		return nil
	}
	return &model.User{
		ID:        u.ID.String,
		Username:  u.Username.String,
		Name:      u.Name.String,
		AvatarURL: u.AvatarURL.String,
		WebURL:    u.WebURL.String,
	}
}

func authorID(user *model.User) any {
	if user == nil {
		return nil
	}
	return nullable(user.ID)
}
