package cashbox

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultInterval = 15 * time.Minute

// WorkerOptions задаёт параметры воркера автосоздания касс.
type WorkerOptions struct {
	Logger   *log.Entry
	Interval time.Duration
	Clock    func() time.Time
}

// WorkerOption настраивает Worker.
type WorkerOption func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) WorkerOption {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между проверками.
func WithInterval(interval time.Duration) WorkerOption {
	return func(opts *WorkerOptions) {
		opts.Interval = interval
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) WorkerOption {
	return func(opts *WorkerOptions) {
		opts.Clock = clock
	}
}

// Worker периодически проверяет, что касса на текущий день существует.
type Worker struct {
	provisioner *Provisioner
	logger      *log.Entry
	interval    time.Duration
	clock       func() time.Time
}

// NewWorker создаёт воркер автосоздания касс.
func NewWorker(provisioner *Provisioner, options ...WorkerOption) *Worker {
	opts := WorkerOptions{Interval: defaultInterval}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cashbox-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Worker{
		provisioner: provisioner,
		logger:      logger,
		interval:    opts.Interval,
		clock:       opts.Clock,
	}
}

// Run проверяет кассу сразу и затем каждые interval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.provisioner == nil {
		w.logger.Warn("cashbox worker is disabled: provisioner is nil")
		return
	}

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	cashbox, created, err := w.provisioner.EnsureForDay(ctx, w.clock())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.WithError(err).Warn("cashbox provisioning failed")
		return
	}
	if created {
		w.logger.WithField("business_date", cashbox.BusinessDate).Info("cashbox provisioned by worker")
	}
}
