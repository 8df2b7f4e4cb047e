package guestbook

import (
	"errors"
	"fmt"
)

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrEmptyField       = errors.New("name and message must not be empty")
	ErrUnknownField     = errors.New("unknown form field")
)

// StoreQueryError is returned when reading entries from the store fails.
type StoreQueryError struct {
	Err error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("list guestbook entries: %s", e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// StoreWriteError is returned when the store rejects a new entry.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("create guestbook entry: %s", e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
