package services

import (
	"context"
	"fmt"
	"log"
	"route-planner-service/internal/domain"
	"time"
)

// Orchestrator state for one planning request. FAILED is terminal and
// reachable from every non-terminal state.
type State string

const (
	StateReceived          State = "RECEIVED"
	StateIntentExtracted   State = "INTENT_EXTRACTED"
	StateLocationsResolved State = "LOCATIONS_RESOLVED"
	StateValidated         State = "VALIDATED"
	StateRouted            State = "ROUTED"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// RetryPolicy bounds the orchestrator's retries of transient upstream
// failures. Retry logic lives only here; stages never retry their own
// calls.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// BackoffFor returns the exponential backoff delay before retry attempt n
// (n starts at 1), capped at MaxBackoff.
func (p RetryPolicy) BackoffFor(attempt int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Orchestrator sequences intent extraction, location resolution,
// constraint validation and route computation for one command, owning the
// retry/fallback policy for the whole pipeline. Each request is one
// independent unit of work; an Orchestrator holds no per-request state
// and is safe for concurrent use.
type Orchestrator struct {
	Extractor *IntentExtractor
	Resolver  *LocationResolver
	Validator *ConstraintValidator
	Computer  *RouteComputer
	Retry     RetryPolicy
	// Fraction of stops allowed to stay unresolved before the whole
	// request is rejected. Zero rejects any unresolved reference.
	UnresolvedTolerance float64
}

// PlanRoute runs the full pipeline for one command. Exactly one of the
// return values is non-nil: the completed plan, or a failure report whose
// bytes are stable for identical input against deterministic downstreams.
func (o *Orchestrator) PlanRoute(ctx context.Context, cmd domain.Command) (*domain.RoutePlan, *FailureReport) {
	state := StateReceived
	o.logTransition(cmd, state)

	intent, err := retryCall(ctx, o.Retry, func() (domain.RouteIntent, error) {
		return o.Extractor.Extract(ctx, cmd)
	})
	if err != nil {
		return nil, o.fail(cmd, state, err)
	}
	state = StateIntentExtracted
	o.logTransition(cmd, state)

	// The resolver reports UPSTREAM_UNAVAILABLE only when every reference
	// failed on transport; partial failures come back as unresolved
	// references and are judged against the tolerance below.
	resolved, unresolved, err := o.Resolver.Resolve(ctx, intent)
	if err != nil {
		return nil, o.fail(cmd, state, err)
	}

	var warnings []string
	if len(unresolved) > 0 {
		frac := float64(len(unresolved)) / float64(len(intent.Stops))
		if frac > o.UnresolvedTolerance {
			return nil, o.fail(cmd, state, Violation(ReasonUnresolvedStop,
				"%d of %d stops could not be resolved: %s",
				len(unresolved), len(intent.Stops), unresolvedRefs(unresolved)))
		}
		warnings = append(warnings, fmt.Sprintf(
			"proceeding without %d unresolved stop(s): %s",
			len(unresolved), unresolvedRefs(unresolved)))
	}
	state = StateLocationsResolved
	o.logTransition(cmd, state)

	input, err := o.Validator.Validate(resolved, intent.Constraints)
	if err != nil {
		// Constraint violations are never retried; identical input is
		// guaranteed to reproduce the same violation.
		return nil, o.fail(cmd, state, err)
	}
	state = StateValidated
	o.logTransition(cmd, state)

	plan, err := retryCall(ctx, o.Retry, func() (*domain.RoutePlan, error) {
		return o.Computer.Compute(ctx, cmd.CommandID, input, warnings)
	})
	if err != nil {
		return nil, o.fail(cmd, state, err)
	}
	state = StateRouted
	o.logTransition(cmd, state)

	state = StateDone
	o.logTransition(cmd, state)
	return plan, nil
}

func (o *Orchestrator) fail(cmd domain.Command, reached State, err error) *FailureReport {
	log.Printf("command=%s state=%s -> %s err=%v", cmd.CommandID, reached, StateFailed, err)
	return newFailureReport(reached, err)
}

func (o *Orchestrator) logTransition(cmd domain.Command, state State) {
	log.Printf("command=%s state=%s", cmd.CommandID, state)
}

// retryCall invokes fn up to MaxRetries+1 times, backing off exponentially
// between attempts, and only for retryable (transient upstream) failures.
// Context cancellation aborts the wait immediately.
func retryCall[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		pe, ok := AsPlanError(err)
		if !ok || !pe.Retryable() || attempt == attempts {
			return zero, lastErr
		}

		timer := time.NewTimer(policy.BackoffFor(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// unresolvedRefs renders unresolved references in stop order with a
// deterministic format, for warnings and failure reports.
func unresolvedRefs(stops []domain.StopRequest) string {
	out := ""
	for i, s := range stops {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", s.Reference)
	}
	return out
}
