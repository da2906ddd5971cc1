package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/macrolens/foodengine/internal/domain"
)

// state is a resolver run's position in its lifecycle
type state string

const (
	stateIdle        state = "idle"
	stateDispatching state = "dispatching"
	stateMerging     state = "merging"
	stateDone        state = "done"
	stateFailed      state = "failed"
)

// DefaultOverallTimeout bounds an aggregate run when none is configured
const DefaultOverallTimeout = 10 * time.Second

// ResolveRequest describes one lookup against the registry
type ResolveRequest struct {
	Capability domain.Capability
	Policy     domain.Policy
	Provider   string // required for PolicySingle
	Text       string
	ID         string
	Barcode    string
	MaxResults int
}

// Outcome is the merged result of a run plus what happened to each provider
type Outcome struct {
	Records   []domain.FoodRecord
	Attempted []string
	Used      []string
	Failed    []string
	Failures  []*domain.ProviderError
}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	OverallTimeout time.Duration
	Debug          bool
}

// Resolver dispatches requests to providers according to a policy and
// merges what they return. Provider failures are classified here and
// nowhere else.
type Resolver struct {
	registry       *domain.Registry
	overallTimeout time.Duration
	debug          bool
}

// NewResolver creates a resolver over an immutable registry
func NewResolver(registry *domain.Registry, config ResolverConfig) *Resolver {
	timeout := config.OverallTimeout
	if timeout <= 0 {
		timeout = DefaultOverallTimeout
	}
	return &Resolver{
		registry:       registry,
		overallTimeout: timeout,
		debug:          config.Debug,
	}
}

// Registry returns the provider registry the resolver dispatches to
func (r *Resolver) Registry() *domain.Registry {
	return r.registry
}

// run tracks one request through the state machine
type run struct {
	req   ResolveRequest
	state state
	debug bool
}

func (rn *run) transition(to state) {
	if rn.debug {
		log.Printf("[RESOLVER] %s/%s: %s -> %s", rn.req.Policy, rn.req.Capability, rn.state, to)
	}
	rn.state = to
}

// Resolve runs req to completion. Under fallback and aggregate only an
// *domain.ExhaustedError is returned; under single the provider's own error
// propagates. Invalid requests and unknown providers fail before dispatch.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*Outcome, error) {
	rn := &run{req: req, state: stateIdle, debug: r.debug}

	var (
		outcome *Outcome
		err     error
	)
	switch req.Policy {
	case domain.PolicyFallback:
		outcome, err = r.fallback(ctx, rn)
	case domain.PolicyAggregate:
		outcome, err = r.aggregate(ctx, rn)
	case domain.PolicySingle:
		outcome, err = r.single(ctx, rn)
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", domain.ErrInvalidRequest, req.Policy)
	}

	if err != nil {
		rn.transition(stateFailed)
		recordResolution(req.Policy, stateFailed)
		return nil, err
	}
	rn.transition(stateDone)
	recordResolution(req.Policy, stateDone)
	return outcome, nil
}

// fallback calls providers in priority order and stops at the first one
// that returns at least one record.
func (r *Resolver) fallback(ctx context.Context, rn *run) (*Outcome, error) {
	eligible := r.registry.Eligible(rn.req.Capability)
	if len(eligible) == 0 {
		return nil, &domain.ExhaustedError{}
	}

	rn.transition(stateDispatching)
	outcome := &Outcome{}
	var exhausted []*domain.ProviderError
	for _, entry := range eligible {
		res := r.call(ctx, entry, rn.req)
		outcome.Attempted = append(outcome.Attempted, res.Source)

		if res.Err != nil {
			outcome.Failed = append(outcome.Failed, res.Source)
			outcome.Failures = append(outcome.Failures, res.Err)
			exhausted = append(exhausted, res.Err)
			log.Printf("[RESOLVER] %s failed, trying next provider: %v", res.Source, res.Err)
			continue
		}
		if len(res.Records) == 0 {
			exhausted = append(exhausted, domain.NewProviderError(res.Source, domain.KindNotFound, errors.New("no records")))
			if r.debug {
				log.Printf("[RESOLVER] %s returned no records, trying next provider", res.Source)
			}
			continue
		}

		rn.transition(stateMerging)
		outcome.Used = []string{res.Source}
		outcome.Records = mergeResults([]domain.ProviderResult{res}, rn.req.MaxResults)
		return outcome, nil
	}

	return nil, &domain.ExhaustedError{Failures: exhausted}
}

// aggregate calls every eligible provider concurrently and merges whatever
// settles before the overall deadline. Calls still running at the deadline
// are recorded as timed out and left to finish on their own.
func (r *Resolver) aggregate(ctx context.Context, rn *run) (*Outcome, error) {
	eligible := r.registry.Eligible(rn.req.Capability)
	if len(eligible) == 0 {
		return nil, &domain.ExhaustedError{}
	}

	rn.transition(stateDispatching)

	type settled struct {
		index  int
		result domain.ProviderResult
	}
	// Buffered so stragglers never block after we stop listening
	ch := make(chan settled, len(eligible))
	callCtx := context.WithoutCancel(ctx)
	for i, entry := range eligible {
		go func(i int, entry domain.RegistryEntry) {
			ch <- settled{index: i, result: r.call(callCtx, entry, rn.req)}
		}(i, entry)
	}

	results := make([]domain.ProviderResult, len(eligible))
	done := make([]bool, len(eligible))
	deadline := time.NewTimer(r.overallTimeout)
	defer deadline.Stop()

wait:
	for pending := len(eligible); pending > 0; pending-- {
		select {
		case s := <-ch:
			results[s.index] = s.result
			done[s.index] = true
		case <-deadline.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	rn.transition(stateMerging)
	outcome := &Outcome{}
	var successful []domain.ProviderResult
	var exhausted []*domain.ProviderError
	for i, entry := range eligible {
		name := entry.Provider.Name()
		outcome.Attempted = append(outcome.Attempted, name)

		res := results[i]
		if !done[i] {
			res = domain.ProviderResult{
				Source: name,
				Err:    domain.NewProviderError(name, domain.KindTimeout, errors.New("overall deadline passed")),
			}
		}
		switch {
		case res.Err != nil:
			outcome.Failed = append(outcome.Failed, name)
			outcome.Failures = append(outcome.Failures, res.Err)
			exhausted = append(exhausted, res.Err)
			log.Printf("[RESOLVER] %s unavailable: %v", name, res.Err)
		case len(res.Records) == 0:
			exhausted = append(exhausted, domain.NewProviderError(name, domain.KindNotFound, errors.New("no records")))
		default:
			outcome.Used = append(outcome.Used, name)
			successful = append(successful, res)
		}
	}

	if len(successful) == 0 {
		return nil, &domain.ExhaustedError{Failures: exhausted}
	}
	outcome.Records = mergeResults(successful, rn.req.MaxResults)
	return outcome, nil
}

// single calls exactly the named provider and propagates its error
func (r *Resolver) single(ctx context.Context, rn *run) (*Outcome, error) {
	entry, ok := r.registry.Get(rn.req.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, rn.req.Provider)
	}

	rn.transition(stateDispatching)
	res := r.call(ctx, entry, rn.req)
	outcome := &Outcome{Attempted: []string{res.Source}}
	if res.Err != nil {
		return nil, res.Err
	}

	rn.transition(stateMerging)
	if len(res.Records) > 0 {
		outcome.Used = []string{res.Source}
	}
	outcome.Records = mergeResults([]domain.ProviderResult{res}, rn.req.MaxResults)
	return outcome, nil
}

// call invokes one provider under its own timeout. It never returns a raw
// error: whatever the adapter does, including panicking, ends up classified
// in the result.
func (r *Resolver) call(ctx context.Context, entry domain.RegistryEntry, req ResolveRequest) (res domain.ProviderResult) {
	name := entry.Provider.Name()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, entry.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			res = domain.ProviderResult{
				Source: name,
				Err:    domain.NewProviderError(name, domain.KindSchemaError, fmt.Errorf("adapter panic: %v", p)),
			}
		}
		res.Latency = time.Since(start)
		recordProviderCall(req.Capability, res)
		if r.debug {
			log.Printf("[RESOLVER] %s %s: %d records in %s (err: %v)", name, req.Capability, len(res.Records), res.Latency, res.Err)
		}
	}()

	records, err := invoke(callCtx, entry.Provider, req)
	res = domain.ProviderResult{Source: name}
	if perr := classify(callCtx, name, err); perr != nil {
		res.Err = perr
		return res
	}
	for i := range records {
		if records[i].Source == "" {
			records[i].Source = name
		}
	}
	res.Records = records
	return res
}

func invoke(ctx context.Context, p domain.Provider, req ResolveRequest) ([]domain.FoodRecord, error) {
	switch req.Capability {
	case domain.CapabilityText:
		if s, ok := p.(domain.TextSearcher); ok {
			return s.SearchByText(ctx, req.Text, req.MaxResults)
		}
	case domain.CapabilityID:
		if f, ok := p.(domain.DetailFetcher); ok {
			return f.GetByID(ctx, req.ID)
		}
	case domain.CapabilityBarcode:
		if b, ok := p.(domain.BarcodeLookup); ok {
			return b.GetByBarcode(ctx, req.Barcode)
		}
	}
	return nil, domain.NewProviderError(p.Name(), domain.KindCapabilityNotSupported,
		fmt.Errorf("%s does not support %s lookups", p.Name(), req.Capability))
}

// classify turns any adapter error into a ProviderError
func classify(ctx context.Context, provider string, err error) *domain.ProviderError {
	if err == nil {
		return nil
	}
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)

	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		if timedOut && perr.Kind == domain.KindNetworkError {
			return &domain.ProviderError{Provider: provider, Kind: domain.KindTimeout, Err: perr.Err}
		}
		if perr.Provider == "" {
			cp := *perr
			cp.Provider = provider
			return &cp
		}
		return perr
	}

	switch {
	case timedOut, errors.Is(err, context.DeadlineExceeded):
		return domain.NewProviderError(provider, domain.KindTimeout, err)
	case errors.Is(err, domain.ErrCapabilityNotSupported):
		return domain.NewProviderError(provider, domain.KindCapabilityNotSupported, err)
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewProviderError(provider, domain.KindNotFound, err)
	default:
		return domain.NewProviderError(provider, domain.KindNetworkError, err)
	}
}
