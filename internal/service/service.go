// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives
// validated payloads from the handlers, picks the repository finder that
// matches the request, loads child collections explicitly, and converts
// store errors into client errors.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/deppfellow/gitminer/internal/errs"
	"github.com/deppfellow/gitminer/internal/middleware"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

var invalidSortFieldCode = "INVALID_SORT_FIELD"

// storeError converts a repository error into an *errs.HTTPError.
func storeError(err error) error {
	if errors.Is(err, repository.ErrInvalidSortField) {
		return errs.NewBadRequestError(err.Error(), true, &invalidSortFieldCode, []errs.FieldError{
			{Field: "order", Error: "is not a sortable field"},
		}, nil)
	}
	return sqlerr.HandleError(err)
}

// newID keeps a client-supplied identifier and generates one otherwise.
func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func now() time.Time {
	return time.Now().UTC()
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// pruneUsers schedules an orphan user sweep when background jobs are
// available. Failing to enqueue never fails the request.
func pruneUsers(ctx context.Context, s *server.Server, reason string) {
	if s.Job == nil {
		return
	}
	if err := s.Job.EnqueueUserPrune(ctx, reason); err != nil {
		middleware.LoggerFromContext(ctx).Warn().Err(err).Str("reason", reason).Msg("failed to enqueue user prune task")
	}
}
