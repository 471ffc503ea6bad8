package model

import (
	"github.com/deppfellow/gitminer/internal/validation"
)

type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name" validate:"required"`
	WebURL  string   `json:"web_url" validate:"required,url"`
	Commits []Commit `json:"commits" validate:"dive"`
	Issues  []Issue  `json:"issues" validate:"dive"`
}

func (p *Project) Validate() error {
	return validation.Validator().Struct(p)
}

// UpdateProjectRequest is the body of PUT /projects/{id}.
type UpdateProjectRequest struct {
	ID     string  `param:"id" json:"-" validate:"required"`
	Name   *string `json:"name" validate:"omitempty,min=1"`
	WebURL *string `json:"web_url" validate:"omitempty,url"`
}

func (r *UpdateProjectRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// Apply overwrites the mutable fields of p that are present in r.
func (r *UpdateProjectRequest) Apply(p *Project) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.WebURL != nil {
		p.WebURL = *r.WebURL
	}
}

// ListProjectsQuery is GET /projects. Name filters by exact project name.
type ListProjectsQuery struct {
	ListQuery
	Name string `query:"name"`
}

func (q *ListProjectsQuery) Validate() error {
	return validation.Validator().Struct(q)
}
