// Package model holds the records served by the API together with
// the request payloads that create, update and list them.
//
// Records double as create payloads: their validate tags carry the
// required-field constraints. Update payloads use pointer fields so that
// only the attributes present in the request body are applied.
package model

import (
	"github.com/deppfellow/gitminer/internal/validation"
)

// ResourceID carries the {id} path parameter of single-resource routes.
type ResourceID struct {
	ID string `param:"id" validate:"required"`
}

func (r *ResourceID) Validate() error {
	return validation.Validator().Struct(r)
}
