// Package telemetry provides an optional, fire-and-forget NATS publisher
// for simulation lifecycle events (the state machine publishes sim_started,
// with the scenario id, when it creates a world). It is entirely ambient: nothing in the core command/response
// contract depends on it, and a process with no NATS URL configured runs
// with a no-op publisher.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher sends best-effort JSON telemetry messages to a NATS subject.
// A nil *nats.Conn makes every Publish call a no-op, so callers never need
// to branch on whether telemetry is configured.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// Connect dials url and returns a Publisher bound to subject. If url is
// empty, it returns a Publisher with no connection (Publish becomes a
// no-op) rather than an error, since telemetry is optional.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return &Publisher{subject: subject}, nil
	}
	nc, err := nats.Connect(url, nats.Name("cellsim-server"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// Event is the envelope published for every lifecycle notification.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Publish fires Event asynchronously and swallows any error beyond a debug
// log line: telemetry must never block or fail the simulation loop.
func (p *Publisher) Publish(kind, detail string) {
	if p == nil || p.nc == nil {
		return
	}
	payload, err := json.Marshal(Event{Kind: kind, Timestamp: time.Now(), Detail: detail})
	if err != nil {
		log.Debug().Err(err).Str("kind", kind).Msg("telemetry marshal failed")
		return
	}
	if err := p.nc.Publish(p.subject, payload); err != nil {
		log.Debug().Err(err).Str("kind", kind).Msg("telemetry publish failed")
	}
}

// Close drains and closes the underlying connection, if any.
func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
