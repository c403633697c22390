// Package muscles fills missing muscle groups in the exercise catalog by
// asking a text-generation model, one exercise at a time.
package muscles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalogtool/internal/catalog"
	"catalogtool/internal/integrations/llm"
	"catalogtool/internal/logger"
)

var (
	ErrNoJSON          = errors.New("no JSON object in response")
	ErrEmptyPrimary    = errors.New("missing primary muscle")
	ErrOutsideTaxonomy = errors.New("primary muscle outside taxonomy")
)

// State is where an item stands in one enrichment pass.
type State int

const (
	StateSkip State = iota
	StatePending
	StateRequesting
	StateParsed
	StateRequestFailed
	StateAccepted
	StateRejected
)

var stateNames = map[State]string{
	StateSkip:          "skip",
	StatePending:       "pending",
	StateRequesting:    "requesting",
	StateParsed:        "parsed",
	StateRequestFailed: "request_failed",
	StateAccepted:      "accepted",
	StateRejected:      "rejected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// terminal reports whether s ends an item's pass.
func (s State) terminal() bool {
	switch s {
	case StateSkip, StateRequestFailed, StateAccepted, StateRejected:
		return true
	}
	return false
}

// initialState decides whether an item takes part in the pass.
func initialState(item *catalog.Item) State {
	if !item.NeedsLabel() || strings.TrimSpace(item.CanonicalName) == "" {
		return StateSkip
	}
	return StatePending
}

// afterRequest moves a Requesting item on once the model call returned.
func afterRequest(text string, callErr error) (State, ClassificationPayload, error) {
	if callErr != nil {
		return StateRequestFailed, ClassificationPayload{}, callErr
	}
	obj, ok := ExtractJSON(text)
	if !ok {
		return StateRequestFailed, ClassificationPayload{}, ErrNoJSON
	}
	return StateParsed, PayloadFromObject(obj), nil
}

// afterParse accepts or rejects a parsed payload. With strict set, labels are
// mapped onto the taxonomy first and an unknown primary is rejected.
func afterParse(payload ClassificationPayload, taxonomy Taxonomy, strict bool) (State, string, []string, error) {
	if strict {
		payload = restrictToTaxonomy(payload, taxonomy)
	}
	primary, secondary := NormalizeLabels(payload)
	if primary == "" {
		return StateRejected, "", nil, ErrEmptyPrimary
	}
	if strict {
		if _, ok := taxonomy.Canonical(primary); !ok {
			return StateRejected, "", nil, fmt.Errorf("%w: %q", ErrOutsideTaxonomy, primary)
		}
	}
	return StateAccepted, primary, secondary, nil
}

// Outcome records what happened to one item.
type Outcome struct {
	Name      string
	State     State
	Primary   string
	Secondary []string
	Err       error
}

type Pacing struct {
	RequestFailure time.Duration
	ParseFailure   time.Duration
	Success        time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		RequestFailure: time.Second,
		ParseFailure:   500 * time.Millisecond,
		Success:        250 * time.Millisecond,
	}
}

func (p Pacing) after(o Outcome) time.Duration {
	switch o.State {
	case StateAccepted:
		return p.Success
	case StateRejected:
		return p.ParseFailure
	case StateRequestFailed:
		if errors.Is(o.Err, ErrNoJSON) {
			return p.ParseFailure
		}
		return p.RequestFailure
	}
	return 0
}

type Options struct {
	Taxonomy Taxonomy
	Generate llm.GenerateFunc
	// Limit caps accepted items per run; 0 means no cap.
	Limit  int
	Strict bool
	Pacing Pacing
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *logger.Logger
}

type Enricher struct {
	taxonomy Taxonomy
	generate llm.GenerateFunc
	limit    int
	strict   bool
	pacing   Pacing
	sleep    func(ctx context.Context, d time.Duration) error
	log      *logger.Logger
}

func NewEnricher(opts Options) (*Enricher, error) {
	if opts.Generate == nil {
		return nil, fmt.Errorf("enricher needs a generate function")
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("invalid limit %d: must be >= 0", opts.Limit)
	}
	if opts.Taxonomy.Len() == 0 {
		opts.Taxonomy = DefaultTaxonomy()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Enricher{
		taxonomy: opts.Taxonomy,
		generate: opts.Generate,
		limit:    opts.Limit,
		strict:   opts.Strict,
		pacing:   opts.Pacing,
		sleep:    opts.Sleep,
		log:      opts.Logger,
	}, nil
}

// ProcessItem runs one item through the state machine. Accepted labels are
// written onto the item. Failures are reported in the outcome, never returned.
func (e *Enricher) ProcessItem(ctx context.Context, item *catalog.Item) Outcome {
	name := strings.TrimSpace(item.CanonicalName)
	out := Outcome{Name: name, State: initialState(item)}
	if out.State == StateSkip {
		return out
	}

	out.State = StateRequesting
	text, callErr := e.generate(ctx, BuildPrompt(e.taxonomy, name))

	state, payload, err := afterRequest(text, callErr)
	out.State, out.Err = state, err
	if state != StateParsed {
		return out
	}

	out.State, out.Primary, out.Secondary, out.Err = afterParse(payload, e.taxonomy, e.strict)
	if out.State != StateAccepted {
		return out
	}
	if err := item.SetMuscles(out.Primary, out.Secondary); err != nil {
		out.State, out.Primary, out.Secondary, out.Err = StateRejected, "", nil, err
	}
	return out
}

// RunResult summarizes one pass over the catalog.
type RunResult struct {
	RunID    string
	Updated  int
	Outcomes []Outcome
}

// Count returns how many processed items ended in state s.
func (r RunResult) Count(s State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == s {
			n++
		}
	}
	return n
}

// Run processes every eligible item in order, pacing between calls. It only
// returns an error when ctx is cancelled; labels applied so far stay on the
// in-memory items but callers must not persist a cancelled run.
func (e *Enricher) Run(ctx context.Context, items []*catalog.Item) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString()}
	for _, item := range items {
		if initialState(item) == StateSkip {
			continue
		}
		if e.limit > 0 && result.Updated >= e.limit {
			e.log.Info("fill limit reached", "limit", e.limit)
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		out := e.ProcessItem(ctx, item)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !out.State.terminal() {
			return result, fmt.Errorf("item %q stopped in state %s", out.Name, out.State)
		}
		result.Outcomes = append(result.Outcomes, out)

		switch out.State {
		case StateAccepted:
			result.Updated++
			e.log.Info(fmt.Sprintf("[%d] %s -> %s / %v", result.Updated, out.Name, out.Primary, out.Secondary),
				"name", out.Name, "primary", out.Primary, "secondary", out.Secondary)
		case StateRequestFailed:
			if errors.Is(out.Err, ErrNoJSON) {
				e.log.Warn("No JSON for "+out.Name, "name", out.Name)
			} else {
				e.log.Warn("Request failed for "+out.Name, "name", out.Name, "error", out.Err)
			}
		case StateRejected:
			e.log.Warn("Rejected label for "+out.Name, "name", out.Name, "error", out.Err)
		}

		if err := e.sleep(ctx, e.pacing.after(out)); err != nil {
			return result, err
		}
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
