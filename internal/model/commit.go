package model

import (
	"time"

	"github.com/deppfellow/gitminer/internal/validation"
)

type Commit struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"author_name" validate:"required"`
	AuthorEmail  string    `json:"author_email" validate:"omitempty,email"`
	AuthoredDate time.Time `json:"authored_date" validate:"required"`
	WebURL       string    `json:"web_url" validate:"required,url"`
}

func (c *Commit) Validate() error {
	return validation.Validator().Struct(c)
}

type UpdateCommitRequest struct {
	ID           string     `param:"id" json:"-" validate:"required"`
	Title        *string    `json:"title"`
	Message      *string    `json:"message"`
	WebURL       *string    `json:"web_url" validate:"omitempty,url"`
	AuthorName   *string    `json:"author_name" validate:"omitempty,min=1"`
	AuthorEmail  *string    `json:"author_email" validate:"omitempty,email"`
	AuthoredDate *time.Time `json:"authored_date"`
}

func (r *UpdateCommitRequest) Validate() error {
	return validation.Validator().Struct(r)
}

func (r *UpdateCommitRequest) Apply(c *Commit) {
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Message != nil {
		c.Message = *r.Message
	}
	if r.WebURL != nil {
		c.WebURL = *r.WebURL
	}
	if r.AuthorName != nil {
		c.AuthorName = *r.AuthorName
	}
	if r.AuthorEmail != nil {
		c.AuthorEmail = *r.AuthorEmail
	}
	if r.AuthoredDate != nil {
		c.AuthoredDate = *r.AuthoredDate
	}
}

type ListCommitsQuery struct {
	ListQuery
	AuthorName string `query:"authorName"`
}

func (q *ListCommitsQuery) Validate() error {
	return validation.Validator().Struct(q)
}
