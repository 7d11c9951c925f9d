package datastore

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Listener wraps a pq.Listener subscribed to the vetting_jobs channel.
// Each notification's payload is the job id as a string.
type Listener struct {
	pq *pq.Listener
}

// NewListener connects a new listener to dsn and subscribes to the
// vetting_jobs channel, mirroring PgListener::connect_with + listen in
// the worker's Rust original.
func NewListener(dsn string) (*Listener, error) {
	errCh := make(chan error, 1)
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if ev == pq.ListenerEventConnectionAttemptFailed && err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}

	l := pq.NewListener(dsn, 10*time.Second, time.Minute, reportProblem)
	if err := l.Listen("vetting_jobs"); err != nil {
		l.Close()
		return nil, fmt.Errorf("datastore: listening on vetting_jobs: %w", err)
	}
	return &Listener{pq: l}, nil
}

// Notifications exposes the underlying notification channel. Each
// notification's Extra field carries the job id payload.
func (l *Listener) Notifications() <-chan *pq.Notification {
	return l.pq.Notify
}

// Close stops listening and releases the connection.
func (l *Listener) Close() error {
	return l.pq.Close()
}
