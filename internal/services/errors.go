package services

import (
	"errors"
	"fmt"
)

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTitleTaken       = errors.New("a company with this title already exists")
	ErrPunchcardExists  = errors.New("user already has a punchcard for the given company")
	ErrMissingUserToken = errors.New("token header not set")
	ErrInvalidUserToken = errors.New("user not found with provided token")
)

// StoreError wraps a record store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
