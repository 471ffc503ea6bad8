package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/gitminer/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM users u
		WHERE NOT EXISTS (SELECT 1 FROM issues i WHERE i.author_id = u.id)
		  AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.author_id = u.id)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan users: %w", err)
	}
	return tag.RowsAffected(), nil
}

// upsertUser stores an embedded author. Non-empty fields of later payloads
// win; an id-only reference leaves the stored profile alone.
func upsertUser(ctx context.Context, q querier, user *model.User) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, username, name, avatar_url, web_url)
		VALUES (@id, @username, @name, @avatar_url, @web_url)
		ON CONFLICT (id) DO UPDATE SET
			username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			avatar_url = COALESCE(NULLIF(EXCLUDED.avatar_url, ''), users.avatar_url),
			web_url = COALESCE(NULLIF(EXCLUDED.web_url, ''), users.web_url)`,
		pgx.NamedArgs{
			"id":         user.ID,
			"username":   user.Username,
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
			"web_url":    user.WebURL,
		})
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// author rebuilds an embedded author from a LEFT JOIN on users.
func author(id, username, name, avatarURL, webURL *string) *model.User {
	if id == nil {
		return nil
	}
	return &model.User{
		ID:        *id,
		Username:  deref(username),
		Name:      deref(name),
		AvatarURL: deref(avatarURL),
		WebURL:    deref(webURL),
	}
}

func authorID(user *model.User) *string {
	if user == nil {
		return nil
	}
	return nullable(user.ID)
}
