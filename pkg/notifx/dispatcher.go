package notifx

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/asyncx"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
)

// Dispatcher sends through a primary provider and, when that fails, through
// an optional fallback provider with the same code.
type Dispatcher struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. fallback may be nil; timeout <= 0 disables the bound.
func NewDispatcher(primary, fallback Provider, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
	}
}

// PrimaryName returns the primary provider name.
func (d *Dispatcher) PrimaryName() string {
	if d.primary == nil {
		return ""
	}
	return d.primary.Name()
}

// FallbackName returns the fallback provider name, empty when none.
func (d *Dispatcher) FallbackName() string {
	if d.fallback == nil {
		return ""
	}
	return d.fallback.Name()
}

// Deliver attempts delivery and reports what happened. It never returns an error.
// A provider that cannot address the recipient (an SMS gateway given an email)
// counts as a failed attempt without being called.
func (d *Dispatcher) Deliver(ctx context.Context, recipient, code, purpose string) DeliveryOutcome {
	var outcome DeliveryOutcome

	if d.primary == nil {
		outcome.PrimaryErr = notifxErrors.New(ErrNoProvider)
	} else {
		res, err := d.attempt(ctx, d.primary, recipient, code, purpose)
		if err == nil {
			outcome.OK = true
			outcome.Result = res
			return outcome
		}
		outcome.PrimaryErr = err
		logx.WithFields(logx.Fields{
			"provider":  d.primary.Name(),
			"recipient": recipient,
			"purpose":   purpose,
		}).WithError(err).Warn("notifx: primary delivery failed")
	}

	if d.fallback == nil {
		return outcome
	}

	outcome.UsedFallback = true
	res, err := d.attempt(ctx, d.fallback, recipient, code, purpose)
	if err != nil {
		outcome.FallbackErr = err
		logx.WithFields(logx.Fields{
			"provider":  d.fallback.Name(),
			"recipient": recipient,
			"purpose":   purpose,
		}).WithError(err).Error("notifx: fallback delivery failed")
		return outcome
	}

	outcome.OK = true
	outcome.Result = res
	return outcome
}

func (d *Dispatcher) attempt(ctx context.Context, p Provider, recipient, code, purpose string) (DeliveryResult, error) {
	if a, ok := p.(Addresser); ok && !a.CanAddress(recipient) {
		return DeliveryResult{}, notifxErrors.New(ErrUnaddressable).WithDetail("provider", p.Name())
	}

	if d.timeout <= 0 {
		return p.Send(ctx, recipient, code, purpose)
	}

	res, err := asyncx.WithTimeout(ctx, d.timeout, func(ctx context.Context) (DeliveryResult, error) {
		return p.Send(ctx, recipient, code, purpose)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return DeliveryResult{}, notifxErrors.NewWithCause(ErrDeliveryTimeout, err).
			WithDetail("provider", p.Name()).
			WithDetail("timeout", d.timeout.String())
	}
	return res, err
}
