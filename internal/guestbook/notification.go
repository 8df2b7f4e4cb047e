package guestbook

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type Notifier interface {
	Notify(n Notification)
}

var (
	_ Notifier = (*NotificationQueue)(nil)
	_ Notifier = LogNotifier{}
)

// NotificationQueue holds notifications of a single view until they are shown.
type NotificationQueue struct {
	mutex         sync.Mutex
	notifications []Notification
}

func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{}
}

func (q *NotificationQueue) Notify(n Notification) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.notifications = append(q.notifications, n)
}

// Drain returns all pending notifications, oldest first, and empties the queue.
func (q *NotificationQueue) Drain() []Notification {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	drained := q.notifications
	q.notifications = nil
	return drained
}

type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	switch n.Severity {
	case SeverityError:
		log.Errorf("guestbook notification: %s", n.Message)
	default:
		log.Infof("guestbook notification: %s", n.Message)
	}
}
