package model

import (
	"time"

	"github.com/deppfellow/gitminer/internal/validation"
)

type Comment struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id,omitempty"`
	Body      string    `json:"body" validate:"required"`
	Author    *User     `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) Validate() error {
	return validation.Validator().Struct(c)
}

type UpdateCommentRequest struct {
	ID   string  `param:"id" json:"-" validate:"required"`
	Body *string `json:"body" validate:"omitempty,min=1"`
}

func (r *UpdateCommentRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// Apply overwrites the body when present and always stamps updated_at.
func (r *UpdateCommentRequest) Apply(c *Comment, now time.Time) {
	if r.Body != nil {
		c.Body = *r.Body
	}
	c.UpdatedAt = now
}

type ListCommentsQuery struct {
	ListQuery
	AuthorID string `query:"authorId"`
}

func (q *ListCommentsQuery) Validate() error {
	return validation.Validator().Struct(q)
}
