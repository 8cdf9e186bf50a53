package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultQueueSize = 256
	sendTimeout      = 10 * time.Second
	drainTimeout     = 5 * time.Second
)

// Dispatcher moves messages off the request path onto a single worker.
type Dispatcher struct {
	sender Sender
	queue  chan Message
	log    *slog.Logger
	total  *prometheus.CounterVec

	once sync.Once
	done chan struct{}
}

func NewDispatcher(sender Sender, size int, log *slog.Logger, reg prometheus.Registerer) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Message, size),
		log:    log,
		done:   make(chan struct{}),
		total: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "cottage",
			Name:      "notifications_total",
			Help:      "Outbound chat notifications by result.",
		}, []string{"type", "result"}),
	}
}

// Enqueue never blocks; it drops the message when the queue is full or no
// sender is configured.
func (d *Dispatcher) Enqueue(msg Message) bool {
	if d.sender == nil || msg.ChatID == 0 {
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.total.WithLabelValues(msg.Type, "dropped").Inc()
		d.log.Warn("notification queue full, dropping message", "type", msg.Type, "chat_id", msg.ChatID)
		return false
	}
}

// Run delivers queued messages until ctx is cancelled, then drains what is
// left within a short grace period.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.once.Do(func() { close(d.done) })

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.total.WithLabelValues(msg.Type, "failed").Inc()
		d.log.Error("notification failed", "type", msg.Type, "chat_id", msg.ChatID, "error", err)
		return
	}
	d.total.WithLabelValues(msg.Type, "sent").Inc()
}
