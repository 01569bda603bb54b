package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-otp-nosql/internal/domain"
	"github.com/go-otp-nosql/internal/observability/metrics"
)

// Sender delivers a code to its recipient.
type Sender interface {
	SendOTP(ctx context.Context, msg domain.OtpMessage) error
}

// Alerter is told about deliveries that failed in the background.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

type Options struct {
	// Async hands the message to a goroutine and returns at once; failures are
	// logged and alerted but never reach the caller.
	Async   bool
	Timeout time.Duration
}

type Dispatcher struct {
	sender  Sender
	alerter Alerter
	opts    Options
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher. alerter may be nil.
func NewDispatcher(sender Sender, alerter Alerter, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Dispatcher{sender: sender, alerter: alerter, opts: opts}
}

// Dispatch sends msg. In async mode it only fails if nothing was started.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.OtpMessage) error {
	if !d.opts.Async {
		if err := d.send(ctx, msg); err != nil {
			return domain.Dependency("deliver otp", err)
		}
		return nil
	}

	// The request context ends with the response; delivery must outlive it.
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.send(bg, msg); err != nil {
			d.alert(bg, msg, err)
		}
	}()
	return nil
}

func (d *Dispatcher) send(ctx context.Context, msg domain.OtpMessage) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	if err := d.sender.SendOTP(ctx, msg); err != nil {
		metrics.OtpDeliveriesTotal.WithLabelValues("failed").Inc()
		slog.Error("otp delivery failed", "email", msg.To, "purpose", msg.Purpose, "err", err)
		return err
	}
	metrics.OtpDeliveriesTotal.WithLabelValues("sent").Inc()
	slog.Info("otp delivered", "email", msg.To, "purpose", msg.Purpose)
	return nil
}

func (d *Dispatcher) alert(ctx context.Context, msg domain.OtpMessage, cause error) {
	if d.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	body := fmt.Sprintf("could not deliver %s code to %s: %v", msg.Purpose, msg.To, cause)
	if err := d.alerter.Alert(ctx, "otp delivery failed", body); err != nil {
		slog.Warn("failed to publish delivery alert", "err", err)
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
