package guestbook

import (
	"context"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=guestbook_test

// Store is the only way the guestbook talks to its data store.
// Ids and creation timestamps are always assigned by the store.
type Store interface {
	// ListEntries returns all entries, newest first. Never returns a nil slice on success.
	ListEntries(ctx context.Context) ([]Entry, error)
	CreateEntry(ctx context.Context, name, message string) error
}
