// internal/webhook/dispatcher.go
package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	jmes "github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/internal/auth"
	"github.com/kshehadeh/atlassian-addon-helper/internal/descriptor"
)

// Handler processes one verified webhook payload. A non-nil error marks
// the delivery failed; the host product decides whether to redeliver.
type Handler func(ctx context.Context, claims auth.Claims, payload []byte) error

// Registration binds one event name to one handler. The set passed to
// NewDispatcher is fixed for the process lifetime.
type Registration struct {
	Event   string
	Filter  string // optional host-side event filter, descriptor only
	Handler Handler
}

// URLPath is where the host product will deliver the event. Derived from
// the event name, never user-supplied.
func (r Registration) URLPath() string { return "/webhook/" + r.Event }

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// defaultEventExpr locates the event name inside host product payloads.
const defaultEventExpr = "webhookEvent"

// Dispatcher routes verified events to their registered handler, at most
// once per inbound call. No retry, no queue.
type Dispatcher struct {
	log       *zap.SugaredLogger
	byEvent   map[string]Registration
	eventExpr *jmes.JMESPath
}

type Option func(*Dispatcher) error

// WithEventExpression overrides the JMESPath expression used to pull the
// event name out of a payload.
func WithEventExpression(expr string) Option {
	return func(d *Dispatcher) error {
		compiled, err := jmes.Compile(expr)
		if err != nil {
			return fmt.Errorf("webhook: event expression %q: %w", expr, err)
		}
		d.eventExpr = compiled
		return nil
	}
}

// NewDispatcher builds the event-name map once. Duplicate event names and
// nil handlers are configuration mistakes and fail fast.
func NewDispatcher(log *zap.SugaredLogger, regs []Registration, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{log: log, byEvent: make(map[string]Registration, len(regs))}
	d.eventExpr = jmes.MustCompile(defaultEventExpr)
	for _, o := range opts {
		if err := o(d); err != nil {
			return nil, err
		}
	}
	for _, reg := range regs {
		if reg.Event == "" {
			return nil, fmt.Errorf("webhook: registration with empty event name")
		}
		if reg.Handler == nil {
			return nil, fmt.Errorf("webhook: nil handler for event %q", reg.Event)
		}
		if _, dup := d.byEvent[reg.Event]; dup {
			return nil, fmt.Errorf("webhook: duplicate registration for event %q", reg.Event)
		}
		d.byEvent[reg.Event] = reg
	}
	return d, nil
}

// EventName extracts the event name from a payload, or "" when the
// payload does not carry one.
func (d *Dispatcher) EventName(payload []byte) string {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ""
	}
	v, err := d.eventExpr.Search(doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Dispatch invokes the handler registered for event with the payload,
// exactly once. A panicking handler is contained and reported as a failed
// outcome; the process stays up.
func (d *Dispatcher) Dispatch(ctx context.Context, claims auth.Claims, event string, payload []byte) Outcome {
	reg, ok := d.byEvent[event]
	if !ok {
		// Tenants may subscribe to more event types than we handle.
		return OutcomeNotFound
	}
	if err := d.invoke(ctx, reg, claims, payload); err != nil {
		d.log.Errorw("webhook handler failed", "event", event, "tenant", claims.TenantKey, "err", err)
		return OutcomeFailed
	}
	return OutcomeOK
}

func (d *Dispatcher) invoke(ctx context.Context, reg Registration, claims auth.Claims, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return reg.Handler(ctx, claims, payload)
}

// Registrations returns the registered set, for route wiring.
func (d *Dispatcher) Registrations() []Registration {
	out := make([]Registration, 0, len(d.byEvent))
	for _, reg := range d.byEvent {
		out = append(out, reg)
	}
	return out
}

// Fragment contributes one webhooks module entry per registration.
func (d *Dispatcher) Fragment() descriptor.Fragment {
	f := descriptor.Fragment{}
	for _, reg := range d.byEvent {
		f.Webhooks = append(f.Webhooks, descriptor.WebhookModule{
			Event:  reg.Event,
			URL:    reg.URLPath(),
			Filter: reg.Filter,
		})
	}
	return f
}
