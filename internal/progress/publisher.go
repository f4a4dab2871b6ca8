package progress

import (
	"time"

	"golang.org/x/time/rate"
)

// Publisher throttles solver progress callbacks before handing them to a
// broker. The solver iterates far faster than any subscriber wants to hear
// about; excess snapshots are dropped, not queued.
type Publisher struct {
	broker   EventBroker
	instance string
	lim      *rate.Limiter
}

// NewPublisher caps publishes at perSec events per second.
func NewPublisher(b EventBroker, instance string, perSec float64) *Publisher {
	return &Publisher{
		broker:   b,
		instance: instance,
		lim:      rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// Publish matches the solver's progress callback signature.
func (p *Publisher) Publish(iteration int, current, best float64, routes int) {
	if !p.lim.Allow() {
		return
	}
	p.broker.Publish(p.instance, Event{
		Instance:  p.instance,
		Iteration: iteration,
		Current:   current,
		Best:      best,
		Routes:    routes,
		TS:        time.Now().UTC(),
	})
}
