package guestbook

import (
	"context"
	"sync"

	"github.com/2beens/guestbook/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Field string

const (
	FieldName    Field = "name"
	FieldMessage Field = "message"
)

type Form struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (f Form) complete() bool {
	return f.Name != "" && f.Message != ""
}

// State is a copy of the controller state at one point in time.
type State struct {
	Entries    []Entry `json:"entries"`
	Form       Form    `json:"form"`
	Submitting bool    `json:"submitting"`
}

// Controller holds the state of one guestbook view: the listed entries,
// the form being filled in and whether a submission is in flight.
// At most one CreateEntry call is in flight per controller. Refreshes are
// not serialized, the last response to arrive wins.
type Controller struct {
	store    Store
	notifier Notifier

	mutex      sync.Mutex
	entries    []Entry
	form       Form
	submitting bool
}

func NewController(store Store, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		entries:  []Entry{},
	}
}

// OnInit is called when the view is mounted.
func (c *Controller) OnInit(ctx context.Context) {
	_ = c.Refresh(ctx)
}

func (c *Controller) Refresh(ctx context.Context) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "guestbookController.refresh")
	defer span.End()

	entries, err := c.store.ListEntries(ctx)
	if err != nil {
		log.Errorf("failed to fetch guestbook entries: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}

	c.mutex.Lock()
	c.entries = entries
	c.mutex.Unlock()

	return nil
}

func (c *Controller) UpdateFormField(field Field, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch field {
	case FieldName:
		c.form.Name = value
	case FieldMessage:
		c.form.Message = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (c *Controller) Submit(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "guestbookController.submit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		return ErrSubmitInProgress
	}
	if !c.form.complete() {
		c.mutex.Unlock()
		return ErrEmptyField
	}
	c.submitting = true
	form := c.form
	c.mutex.Unlock()

	defer func() {
		c.mutex.Lock()
		c.submitting = false
		c.mutex.Unlock()
	}()

	if err := c.store.CreateEntry(ctx, form.Name, form.Message); err != nil {
		c.notifier.Notify(Notification{
			Severity: SeverityError,
			Message:  err.Error(),
		})
		return err
	}

	c.mutex.Lock()
	c.form = Form{}
	c.mutex.Unlock()

	c.onSubmitSucceeded(ctx)
	return nil
}

func (c *Controller) onSubmitSucceeded(ctx context.Context) {
	// a failed refresh is already logged, the entry itself was stored
	_ = c.Refresh(ctx)
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)

	return State{
		Entries:    entries,
		Form:       c.form,
		Submitting: c.submitting,
	}
}
