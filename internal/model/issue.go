package model

import (
	"time"

	"github.com/deppfellow/gitminer/internal/validation"
)

// Issue state is free text; upstream trackers use "opened", "open" and
// "closed" interchangeably.
type Issue struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id,omitempty"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	State       string     `json:"state" validate:"required"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	Labels      []string   `json:"labels"`
	Votes       int        `json:"votes" validate:"min=0"`
	Author      *User      `json:"author"`
	Comments    []Comment  `json:"comments" validate:"dive"`
}

func (i *Issue) Validate() error {
	return validation.Validator().Struct(i)
}

type UpdateIssueRequest struct {
	ID          string     `param:"id" json:"-" validate:"required"`
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	State       *string    `json:"state" validate:"omitempty,min=1"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	Labels      *[]string  `json:"labels"`
	Votes       *int       `json:"votes" validate:"omitempty,min=0"`
}

func (r *UpdateIssueRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// Apply overwrites the mutable fields of i that are present in r.
// A JSON null closed_at is indistinguishable from an absent one and
// leaves the stored value untouched.
func (r *UpdateIssueRequest) Apply(i *Issue) {
	if r.Title != nil {
		i.Title = *r.Title
	}
	if r.Description != nil {
		i.Description = *r.Description
	}
	if r.State != nil {
		i.State = *r.State
	}
	if r.UpdatedAt != nil {
		i.UpdatedAt = *r.UpdatedAt
	}
	if r.ClosedAt != nil {
		closedAt := *r.ClosedAt
		i.ClosedAt = &closedAt
	}
	if r.Labels != nil {
		i.Labels = append([]string{}, (*r.Labels)...)
	}
	if r.Votes != nil {
		i.Votes = *r.Votes
	}
}

type ListIssuesQuery struct {
	ListQuery
	State    string `query:"state"`
	AuthorID string `query:"authorId"`
}

func (q *ListIssuesQuery) Validate() error {
	return validation.Validator().Struct(q)
}
