package wizard

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidSelection is returned by Commit for a value outside the
	// domain of the current screen. Nothing is recorded and the screen stays
	// active.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrSessionAborted is returned once the operator exits before Done.
	ErrSessionAborted = errors.New("session aborted")
)

// Transition describes one move of the sequencer. Key and Value are set
// only when a data-entry state committed an answer.
type Transition struct {
	From     State
	To       State
	Key      registry.Key
	Value    string
	Skipped  bool
	Backward bool
}

// Observer receives every transition.
type Observer func(Transition)

// View is what the current screen presents to the operator.
type View struct {
	State       State
	Key         registry.Key
	Title       string
	Description string
	Choices     []Choice
	Selected    string
	// Notice explains why the previous commit on this screen was rejected.
	Notice string
	// Summary and Editable are set on the Summary screen only.
	Summary  registry.Snapshot
	Editable []EditTarget
}

// EditTarget is a screen the operator may return to from the summary.
type EditTarget struct {
	State State
	Key   registry.Key
}

// Sequencer is the wizard state machine. It moves through a linear chain of
// screens and records one answer per data-entry screen in its registry.
type Sequencer struct {
	screens   map[State]Screen
	skip      SkipRules
	seeds     map[registry.Key]string
	observers []Observer
	logger    *log.Logger

	reg      *registry.Registry
	current  State
	domain   []Choice
	selected string
	notice   string
	aborted  bool
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithSkipRules sets the skip predicates evaluated on state entry.
func WithSkipRules(rules SkipRules) SequencerOption {
	return func(s *Sequencer) {
		s.skip = rules
	}
}

// WithSeeds preselects the given answers, e.g. from a configuration file.
// A seed never suppresses its screen.
func WithSeeds(seeds map[registry.Key]string) SequencerOption {
	return func(s *Sequencer) {
		s.seeds = seeds
	}
}

// WithObserver registers fn to receive transitions.
func WithObserver(fn Observer) SequencerOption {
	return func(s *Sequencer) {
		s.observers = append(s.observers, fn)
	}
}

// WithSequencerLogger sets the logger.
func WithSequencerLogger(l *log.Logger) SequencerOption {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// NewSequencer creates a sequencer positioned on Intro. Every data-entry
// state needs exactly one screen.
func NewSequencer(screens []Screen, opts ...SequencerOption) (*Sequencer, error) {
	s := &Sequencer{
		screens: make(map[State]Screen, len(screens)),
		skip:    SkipRules{},
		logger:  log.New(io.Discard),
		current: StateIntro,
	}
	for _, opt := range opts {
		opt(s)
	}

	keys := make([]registry.Key, 0, len(screens))
	for _, sc := range screens {
		if !sc.State.IsDataEntry() {
			return nil, errors.Newf("screen for %s: not a data-entry state", sc.State)
		}
		if _, dup := s.screens[sc.State]; dup {
			return nil, errors.Newf("duplicate screen for %s", sc.State)
		}
		if sc.Domain == nil {
			return nil, errors.Newf("screen for %s has no domain", sc.State)
		}
		s.screens[sc.State] = sc
	}
	for _, st := range DataStates() {
		sc, ok := s.screens[st]
		if !ok {
			return nil, errors.Newf("missing screen for %s", st)
		}
		keys = append(keys, sc.Key)
	}

	s.reg = registry.New(keys...)
	return s, nil
}

// Current returns the active state.
func (s *Sequencer) Current() State {
	return s.current
}

// Aborted reports whether Abort was called.
func (s *Sequencer) Aborted() bool {
	return s.aborted
}

// View describes the active screen.
func (s *Sequencer) View() View {
	v := View{State: s.current, Notice: s.notice}
	if sc, ok := s.screens[s.current]; ok {
		v.Key = sc.Key
		v.Title = sc.Title
		v.Description = sc.Description
		v.Choices = slices.Clone(s.domain)
		v.Selected = s.selected
	}
	if s.current == StateSummary {
		v.Summary = s.reg.ReadAll()
		for _, st := range s.editable() {
			v.Editable = append(v.Editable, EditTarget{State: st, Key: s.screens[st].Key})
		}
	}
	return v
}

// Commit accepts value on the active screen and advances. An empty value
// keeps the preselected one.
func (s *Sequencer) Commit(value string) error {
	if err := s.checkActive(); err != nil {
		return err
	}

	switch s.current {
	case StateIntro:
		return s.advance(Transition{From: StateIntro})
	case StateSummary:
		if missing := s.reg.Missing(); len(missing) > 0 {
			return errors.AssertionFailedf("summary reached with unanswered options %v", missing)
		}
		return s.advance(Transition{From: StateSummary})
	}

	sc := s.screens[s.current]
	if value == "" {
		value = s.selected
	}
	if !s.inDomain(value) {
		s.notice = fmt.Sprintf("%q is not a valid %s", value, strings.ToLower(sc.Key.Label()))
		return errors.Wrapf(ErrInvalidSelection, "%s: %q", sc.Key, value)
	}
	if err := s.reg.Write(sc.Key, value); err != nil {
		return err
	}
	return s.advance(Transition{From: s.current, Key: sc.Key, Value: value})
}

// Back returns to the previous state that is not skipped. The answer given
// there earlier becomes the preselection.
func (s *Sequencer) Back() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.current == StateIntro {
		return errors.New("cannot go back from the first screen")
	}

	prev := s.current.Prev()
	for prev.IsDataEntry() && s.shouldSkip(prev) {
		prev = prev.Prev()
	}
	return s.moveBack(prev)
}

// JumpTo returns from the Summary screen to any data-entry state that is not
// skipped. The operator then moves forward again from there.
func (s *Sequencer) JumpTo(state State) error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.current != StateSummary {
		return errors.Newf("jumping is only possible from %s, not %s", StateSummary, s.current)
	}
	if !slices.Contains(s.editable(), state) {
		return errors.Newf("cannot jump to %s", state)
	}
	return s.moveBack(state)
}

// Abort ends the session. Every later call fails with ErrSessionAborted.
func (s *Sequencer) Abort() {
	if s.current == StateDone {
		return
	}
	s.logger.Debug("session aborted", "state", s.current)
	s.aborted = true
}

// Result returns a copy of the answers once Done is reached.
func (s *Sequencer) Result() (*registry.Registry, error) {
	if s.aborted {
		return nil, ErrSessionAborted
	}
	if s.current != StateDone {
		return nil, errors.Newf("session not finished, still on %s", s.current)
	}
	return s.reg.Clone(), nil
}

func (s *Sequencer) checkActive() error {
	if s.aborted {
		return ErrSessionAborted
	}
	if s.current == StateDone {
		return errors.New("session already finished")
	}
	return nil
}

func (s *Sequencer) advance(t Transition) error {
	t.To = t.From.Next()
	s.emit(t)
	return s.enter(t.To)
}

func (s *Sequencer) moveBack(to State) error {
	s.emit(Transition{From: s.current, To: to, Backward: true})
	return s.enter(to)
}

// enter activates state: it evaluates the domain, picks the preselection and
// passes over the state when its skip rule holds.
func (s *Sequencer) enter(state State) error {
	s.current = state
	s.domain = nil
	s.selected = ""
	s.notice = ""

	sc, ok := s.screens[state]
	if !ok {
		return nil
	}

	domain, err := sc.Domain()
	if err != nil {
		return errors.Wrapf(err, "failed to enter %s", state)
	}
	if len(domain) == 0 {
		return errors.Newf("%s offers no choices", state)
	}
	s.domain = domain
	s.selected = s.preselect(sc)

	if !s.shouldSkip(state) {
		return nil
	}
	if err := s.reg.Write(sc.Key, s.selected); err != nil {
		return err
	}
	return s.advance(Transition{From: state, Key: sc.Key, Value: s.selected, Skipped: true})
}

func (s *Sequencer) preselect(sc Screen) string {
	if v, ok := s.reg.Get(sc.Key); ok {
		if s.inDomain(v) {
			return v
		}
		s.logger.Warn("previous answer no longer valid", "option", sc.Key, "value", v)
	}
	if v, ok := s.seeds[sc.Key]; ok && v != "" {
		if s.inDomain(v) {
			return v
		}
		s.logger.Warn("ignoring configured default", "option", sc.Key, "value", v)
	}
	if sc.Default != "" && s.inDomain(sc.Default) {
		return sc.Default
	}
	return s.domain[0].Tag
}

func (s *Sequencer) shouldSkip(state State) bool {
	rule, ok := s.skip[state]
	return ok && rule(s.reg.ReadAll())
}

func (s *Sequencer) inDomain(value string) bool {
	return slices.ContainsFunc(s.domain, func(c Choice) bool {
		return c.Tag == value
	})
}

func (s *Sequencer) editable() []State {
	var states []State
	for _, st := range DataStates() {
		if !s.shouldSkip(st) {
			states = append(states, st)
		}
	}
	return states
}

func (s *Sequencer) emit(t Transition) {
	for _, fn := range s.observers {
		fn(t)
	}
}
