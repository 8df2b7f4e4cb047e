package guestbook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/guestbook/internal/guestbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestController_RefreshIsIdempotent(t *testing.T) {
	store := guestbook.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateEntry(ctx, "Ana", "first"))
	require.NoError(t, store.CreateEntry(ctx, "Bob", "second"))
	require.NoError(t, store.CreateEntry(ctx, "Cid", "third"))

	c := guestbook.NewController(store, nil)
	require.NoError(t, c.Refresh(ctx))
	first := c.State().Entries
	require.Len(t, first, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Refresh(ctx))
		assert.Equal(t, first, c.State().Entries)
	}
}

func TestController_ShowsEntriesInStoreOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	now := time.Now()
	entries := []guestbook.Entry{
		{ID: "3", Name: "Cid", Message: "third", CreatedAt: now},
		{ID: "2", Name: "Bob", Message: "second", CreatedAt: now.Add(-time.Minute)},
		{ID: "1", Name: "Ana", Message: "first", CreatedAt: now.Add(-time.Hour)},
	}
	store.EXPECT().ListEntries(gomock.Any()).Return(entries, nil).Times(1)

	c := guestbook.NewController(store, nil)
	c.OnInit(context.Background())

	got := c.State().Entries
	assert.Equal(t, entries, got)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
}

func TestController_RefreshFailureKeepsEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	entries := []guestbook.Entry{{ID: "1", Name: "Ana", Message: "hi", CreatedAt: time.Now()}}
	queryErr := &guestbook.StoreQueryError{Err: errors.New("connection reset")}
	gomock.InOrder(
		store.EXPECT().ListEntries(gomock.Any()).Return(entries, nil),
		store.EXPECT().ListEntries(gomock.Any()).Return(nil, queryErr),
	)

	notifications := guestbook.NewNotificationQueue()
	c := guestbook.NewController(store, notifications)
	require.NoError(t, c.Refresh(context.Background()))

	err := c.Refresh(context.Background())
	require.Error(t, err)
	var target *guestbook.StoreQueryError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, entries, c.State().Entries)
	// fetch failures are only logged
	assert.Empty(t, notifications.Drain())
}

func TestController_SubmitMutualExclusion(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})
	store.EXPECT().
		CreateEntry(gomock.Any(), "Ada", "Hello").
		DoAndReturn(func(context.Context, string, string) error {
			close(started)
			<-release
			return nil
		}).
		Times(1)
	store.EXPECT().ListEntries(gomock.Any()).Return([]guestbook.Entry{}, nil).Times(1)

	c := guestbook.NewController(store, nil)
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Hello"))

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- c.Submit(context.Background())
	}()

	<-started
	require.Eventually(t, func() bool {
		return c.State().Submitting
	}, time.Second, time.Millisecond)

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, guestbook.ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-firstErr)
	assert.False(t, c.State().Submitting)
}

func TestController_SubmitSuccess(t *testing.T) {
	store := guestbook.NewMemoryStore()
	c := guestbook.NewController(store, nil)
	ctx := context.Background()

	c.OnInit(ctx)
	require.Empty(t, c.State().Entries)

	before := time.Now()
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Hello"))
	require.NoError(t, c.Submit(ctx))
	require.NoError(t, c.Refresh(ctx))

	state := c.State()
	require.Len(t, state.Entries, 1)
	assert.Equal(t, "Ada", state.Entries[0].Name)
	assert.Equal(t, "Hello", state.Entries[0].Message)
	assert.NotEmpty(t, state.Entries[0].ID)
	assert.False(t, state.Entries[0].CreatedAt.Before(before))
	assert.Equal(t, guestbook.Form{}, state.Form)
	assert.False(t, state.Submitting)
}

func TestController_SubmitSuccessRefreshes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	created := []guestbook.Entry{{ID: "7", Name: "Ada", Message: "Hello", CreatedAt: time.Now()}}
	gomock.InOrder(
		store.EXPECT().CreateEntry(gomock.Any(), "Ada", "Hello").Return(nil),
		store.EXPECT().ListEntries(gomock.Any()).Return(created, nil),
	)

	c := guestbook.NewController(store, nil)
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Hello"))
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, created, c.State().Entries)
}

func TestController_SubmitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	writeErr := &guestbook.StoreWriteError{Err: errors.New("permission denied for table guestbook")}
	store.EXPECT().CreateEntry(gomock.Any(), "Ada", "Hello").Return(writeErr).Times(1)
	store.EXPECT().ListEntries(gomock.Any()).Times(0)

	notifications := guestbook.NewNotificationQueue()
	c := guestbook.NewController(store, notifications)
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Hello"))

	err := c.Submit(context.Background())
	require.Error(t, err)
	var target *guestbook.StoreWriteError
	assert.ErrorAs(t, err, &target)

	state := c.State()
	assert.Equal(t, guestbook.Form{Name: "Ada", Message: "Hello"}, state.Form)
	assert.False(t, state.Submitting)

	pending := notifications.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, guestbook.SeverityError, pending[0].Severity)
	assert.Contains(t, pending[0].Message, "permission denied for table guestbook")
}

func TestController_SubmitRejectsEmptyFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().CreateEntry(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	c := guestbook.NewController(store, nil)
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, guestbook.ErrEmptyField)
	assert.False(t, c.State().Submitting)
	assert.Equal(t, guestbook.Form{Name: "Ada"}, c.State().Form)
}

func TestController_EmptyStore(t *testing.T) {
	c := guestbook.NewController(guestbook.NewMemoryStore(), nil)
	require.NoError(t, c.Refresh(context.Background()))
	entries := c.State().Entries
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestController_UpdateFormField(t *testing.T) {
	c := guestbook.NewController(guestbook.NewMemoryStore(), nil)

	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "X"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Y"))
	assert.Equal(t, guestbook.Form{Name: "X", Message: "Y"}, c.State().Form)

	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Z"))
	assert.Equal(t, guestbook.Form{Name: "Z", Message: "Y"}, c.State().Form)

	err := c.UpdateFormField(guestbook.Field("email"), "a@b.c")
	assert.ErrorIs(t, err, guestbook.ErrUnknownField)
	assert.Equal(t, guestbook.Form{Name: "Z", Message: "Y"}, c.State().Form)
}

func TestController_StateIsACopy(t *testing.T) {
	store := guestbook.NewMemoryStore()
	require.NoError(t, store.CreateEntry(context.Background(), "Ana", "hi"))

	c := guestbook.NewController(store, nil)
	c.OnInit(context.Background())

	state := c.State()
	state.Entries[0].Name = "changed"
	assert.Equal(t, "Ana", c.State().Entries[0].Name)
}

func TestController_SubmitPanicResetsSubmitting(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().
		CreateEntry(gomock.Any(), "Ada", "Hello").
		DoAndReturn(func(context.Context, string, string) error {
			panic("driver bug")
		}).
		Times(1)
	store.EXPECT().ListEntries(gomock.Any()).Times(0)

	notifications := guestbook.NewNotificationQueue()
	c := guestbook.NewController(store, notifications)
	require.NoError(t, c.UpdateFormField(guestbook.FieldName, "Ada"))
	require.NoError(t, c.UpdateFormField(guestbook.FieldMessage, "Hello"))

	assert.PanicsWithValue(t, "driver bug", func() {
		_ = c.Submit(context.Background())
	})

	state := c.State()
	assert.False(t, state.Submitting)
	assert.Equal(t, guestbook.Form{Name: "Ada", Message: "Hello"}, state.Form)
	assert.Empty(t, notifications.Drain())
}
