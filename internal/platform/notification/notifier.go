package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Stats counts delivery outcomes since startup.
type Stats struct {
	Sent   int64
	Failed int64
}

// Notifier renders templates and hands the result to an EmailSender.
type Notifier struct {
	sender    EmailSender
	templates *TemplateEngine
	async     bool
	timeout   time.Duration

	wg     sync.WaitGroup
	sent   atomic.Int64
	failed atomic.Int64
}

// NewNotifier builds a Notifier. When async is true Notify returns
// immediately and delivery runs in the background with its own timeout,
// detached from the request context's cancellation.
func NewNotifier(sender EmailSender, templates *TemplateEngine, async bool) *Notifier {
	if templates == nil {
		templates = NewTemplateEngine()
	}
	return &Notifier{sender: sender, templates: templates, async: async, timeout: 30 * time.Second}
}

// Notify delivers templateID to recipient. Errors are logged through the
// logger in ctx and never returned.
func (n *Notifier) Notify(ctx context.Context, templateID, recipient string, data map[string]string) {
	if recipient == "" {
		return
	}
	if !n.async {
		_ = n.deliver(ctx, templateID, recipient, data)
		return
	}

	bg := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(bg, n.timeout)
		defer cancel()
		_ = n.deliver(ctx, templateID, recipient, data)
	}()
}

// Deliver sends synchronously and returns the delivery error. Failures are
// also logged and counted.
func (n *Notifier) Deliver(ctx context.Context, templateID, recipient string, data map[string]string) error {
	return n.deliver(ctx, templateID, recipient, data)
}

func (n *Notifier) deliver(ctx context.Context, templateID, recipient string, data map[string]string) error {
	logger := zerolog.Ctx(ctx).With().Str("template", templateID).Str("to", recipient).Logger()

	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		n.failed.Add(1)
		logger.Error().Err(err).Msg("render notification")
		return fmt.Errorf("render %s: %w", templateID, err)
	}

	if err := n.sender.SendEmail(ctx, recipient, subject, body); err != nil {
		n.failed.Add(1)
		logger.Warn().Err(err).Msg("notification delivery failed")
		return err
	}
	n.sent.Add(1)
	logger.Debug().Msg("notification sent")
	return nil
}

// Wait blocks until background deliveries finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) Stats() Stats {
	return Stats{Sent: n.sent.Load(), Failed: n.failed.Load()}
}
