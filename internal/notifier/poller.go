package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetlink/appointment-notifier/internal/appointment"
)

// Poller owns the recurring scan of the store. On each tick it collects
// appointments that are not yet notified and fall within the look-ahead
// window, dispatches a notification for each, and marks only the records
// whose own dispatch succeeded. Anything that fails stays pending and is
// picked up again on the next tick.
type Poller struct {
	store    *appointment.Store
	disp     Dispatcher
	interval time.Duration
	window   time.Duration
	log      zerolog.Logger
}

func NewPoller(store *appointment.Store, disp Dispatcher, interval, window time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		store:    store,
		disp:     disp,
		interval: interval,
		window:   window,
		log:      log,
	}
}

// Run executes one tick immediately, then one per interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().
		Dur("interval", p.interval).
		Dur("window", p.window).
		Msg("poller starting")

	p.RunOnce(ctx, time.Now())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller stopping")
			return
		case <-ticker.C:
			p.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce is the body of a single tick. now is captured once by the caller so
// every record in the tick is judged against the same instant. Dispatches for
// distinct appointments run concurrently; RunOnce returns once all of them
// have settled.
func (p *Poller) RunOnce(ctx context.Context, now time.Time) {
	var due []*appointment.Appointment
	for _, a := range p.store.Scan() {
		if !p.store.Notified(a) && a.DueWithin(p.window, now) {
			due = append(due, a)
		}
	}
	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, a := range due {
		wg.Add(1)
		go func(a *appointment.Appointment) {
			defer wg.Done()
			p.dispatchOne(ctx, a)
		}(a)
	}
	wg.Wait()
}

func (p *Poller) dispatchOne(ctx context.Context, a *appointment.Appointment) {
	if err := p.disp.Dispatch(ctx, a); err != nil {
		p.log.Warn().
			Err(err).
			Str("user_id", a.UserID).
			Str("date", a.Date).
			Str("time", a.Time).
			Msg("dispatch failed, will retry next tick")
		return
	}

	p.store.MarkNotified(a)

	p.log.Info().
		Str("user_id", a.UserID).
		Str("date", a.Date).
		Str("time", a.Time).
		Str("vet_name", a.VetName).
		Msg("appointment notified")
}
