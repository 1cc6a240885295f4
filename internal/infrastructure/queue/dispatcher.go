package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/infrastructure/mail"
	"github.com/asc-solution/accounts/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrDispatcherClosed is returned by Send after Close.
var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Dispatcher routes account emails to a fixed set of workers using consistent
// hashing on the recipient, so emails to one address go out in the order they
// were submitted. It implements ports.NotificationDispatcher.
type Dispatcher struct {
	workers []chan mail.Message
	mailer  Mailer
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan mail.Message, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mail.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers deliver with ctx, not with
// the context of the request that queued the email.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Send queues an email. It blocks while the worker's channel is full and
// gives up when ctx is done.
func (d *Dispatcher) Send(ctx context.Context, toEmail, subject, body string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return ErrDispatcherClosed
	}

	idx := d.shardIndex(toEmail)
	msg := mail.Message{To: toEmail, Subject: subject, Body: body}
	select {
	case d.workers[idx] <- msg:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return ctx.Err()
	}
}

// Close stops accepting emails and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(toEmail string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(toEmail)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan mail.Message) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.mailer.Send(ctx, msg); err != nil {
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("to", msg.To).
					Str("subject", msg.Subject).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		}
	}
}
