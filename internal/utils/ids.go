// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadID is returned by ParseID for anything but a positive integer.
var ErrBadID = errors.New("id must be a positive integer")

// ParseID converts a path or argument value to an entity id. Surrounding
// spaces are ignored; zero, negatives and non-numbers are rejected.
//
// Example:
//
//	id, err := utils.ParseID("42") // 42, nil
//	_, err = utils.ParseID("0")    // ErrBadID
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 0)
	if err != nil || n == 0 {
		return 0, ErrBadID
	}
	return uint(n), nil
}
