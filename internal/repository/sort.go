package repository

import (
	"errors"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
)

// ErrInvalidSortField is returned when an order token names a field the
// entity cannot be sorted by.
var ErrInvalidSortField = errors.New("invalid sort field")

// SortColumns maps the attribute names accepted in "order" (the JSON name
// and its camelCase alias) to a column of the entity's table.
type SortColumns map[string]string

var (
	ProjectSortColumns = SortColumns{
		"id":      "id",
		"name":    "name",
		"web_url": "web_url",
		"webUrl":  "web_url",
	}

	CommitSortColumns = SortColumns{
		"id":            "id",
		"project_id":    "project_id",
		"projectId":     "project_id",
		"title":         "title",
		"message":       "message",
		"author_name":   "author_name",
		"authorName":    "author_name",
		"author_email":  "author_email",
		"authorEmail":   "author_email",
		"authored_date": "authored_date",
		"authoredDate":  "authored_date",
		"web_url":       "web_url",
		"webUrl":        "web_url",
	}

	IssueSortColumns = SortColumns{
		"id":          "id",
		"project_id":  "project_id",
		"projectId":   "project_id",
		"title":       "title",
		"description": "description",
		"state":       "state",
		"created_at":  "created_at",
		"createdAt":   "created_at",
		"updated_at":  "updated_at",
		"updatedAt":   "updated_at",
		"closed_at":   "closed_at",
		"closedAt":    "closed_at",
		"votes":       "votes",
	}

	CommentSortColumns = SortColumns{
		"id":         "id",
		"issue_id":   "issue_id",
		"issueId":    "issue_id",
		"body":       "body",
		"created_at": "created_at",
		"createdAt":  "created_at",
		"updated_at": "updated_at",
		"updatedAt":  "updated_at",
	}
)

// OrderBy renders the ORDER BY expression for sort, qualifying columns
// with alias. Ties are broken by id so pages are stable; a nil sort
// orders by id alone.
func (s SortColumns) OrderBy(alias string, sort *model.Sort) (string, error) {
	if sort == nil {
		return alias + ".id ASC", nil
	}

	column, ok := s[sort.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortField, sort.Field)
	}

	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	if column == "id" {
		return alias + ".id " + direction, nil
	}
	return fmt.Sprintf("%s.%s %s, %s.id ASC", alias, column, direction, alias), nil
}
