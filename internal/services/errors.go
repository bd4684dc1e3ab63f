// Package services defines the business logic for welders, norms, production
// records and snapshots. This file centralizes the service-level error
// taxonomy so that callers can branch with errors.Is.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrConstraintViolation indicates a uniqueness breach (welder name,
	// norm article).
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound indicates an unknown welder or record id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuantity is returned when a quantity does not parse to a
	// finite number.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrMalformedSnapshot is returned when an import document lacks its
	// version or data, is not valid JSON, or references ids it does not
	// contain.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrImportAborted is returned when the destructive import was not
	// confirmed.
	ErrImportAborted = errors.New("import aborted")

	// ErrEmptyName is returned when a welder name is blank.
	ErrEmptyName = errors.New("welder name is empty")

	// ErrEmptyArticle is returned when a norm article is blank.
	ErrEmptyArticle = errors.New("article is empty")
)
