package wizard

import (
	"strings"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ActionKind is the navigation decision taken on a screen.
type ActionKind int

const (
	ActionCommit ActionKind = iota
	ActionBack
	ActionJump
	ActionAbort
)

func (k ActionKind) String() string {
	switch k {
	case ActionCommit:
		return "commit"
	case ActionBack:
		return "back"
	case ActionJump:
		return "jump"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Action is the operator's response to a screen. Value is set for commits,
// Target for jumps.
type Action struct {
	Kind   ActionKind
	Value  string
	Target State
}

// Answer is what a built form writes into while it runs.
type Answer struct {
	Value  string
	Action Action
}

func (a Answer) resolve() Action {
	act := a.Action
	if act.Kind == ActionCommit {
		act.Value = a.Value
	}
	return act
}

type FormBuilder interface {
	Build(view View, answer *Answer) *huh.Form
}

var (
	summaryKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(22)
	summaryValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

type formBuilder struct{}

func NewFormBuilder() FormBuilder {
	return &formBuilder{}
}

func (b *formBuilder) Build(view View, answer *Answer) *huh.Form {
	*answer = Answer{
		Value:  view.Selected,
		Action: Action{Kind: ActionCommit},
	}

	switch view.State {
	case StateIntro:
		return huh.NewForm(
			huh.NewGroup(
				b.introNote(),
				b.introNav(&answer.Action.Kind),
			),
		)
	case StateSummary:
		return huh.NewForm(
			huh.NewGroup(
				b.summaryNote(view.Summary),
				b.summaryNav(view.Editable, &answer.Action),
			),
		)
	default:
		return huh.NewForm(
			huh.NewGroup(
				b.choiceSelect(view, &answer.Value),
				b.stepNav(&answer.Action.Kind),
			),
		)
	}
}

func (b *formBuilder) introNote() *huh.Note {
	return huh.NewNote().
		Title("Welcome to Armbian-NG").
		Description("This wizard collects the settings of one build.\n" +
			"Nothing is built until the summary is confirmed.")
}

func (b *formBuilder) introNav(value *ActionKind) *huh.Select[ActionKind] {
	return huh.NewSelect[ActionKind]().
		Title("Continue?").
		Options(
			huh.NewOption("Start", ActionCommit),
			huh.NewOption("Quit", ActionAbort),
		).
		Value(value)
}

func (b *formBuilder) choiceSelect(view View, value *string) *huh.Select[string] {
	opts := make([]huh.Option[string], 0, len(view.Choices))
	for _, c := range view.Choices {
		opts = append(opts, huh.NewOption(c.Label, c.Tag))
	}

	desc := view.Description
	if view.Notice != "" {
		desc = view.Notice + "\n" + desc
	}

	return huh.NewSelect[string]().
		Title(view.Title).
		Description(desc).
		Options(opts...).
		Value(value)
}

func (b *formBuilder) stepNav(value *ActionKind) *huh.Select[ActionKind] {
	return huh.NewSelect[ActionKind]().
		Title("Next step").
		Inline(true).
		Options(
			huh.NewOption("Next", ActionCommit),
			huh.NewOption("Back", ActionBack),
			huh.NewOption("Abort", ActionAbort),
		).
		Value(value)
}

func (b *formBuilder) summaryNote(answers registry.Snapshot) *huh.Note {
	return huh.NewNote().
		Title("Summary").
		Description(RenderSummary(answers))
}

func (b *formBuilder) summaryNav(editable []EditTarget, value *Action) *huh.Select[Action] {
	opts := []huh.Option[Action]{
		huh.NewOption("Confirm and continue", Action{Kind: ActionCommit}),
	}
	for _, e := range editable {
		label := "Change " + strings.ToLower(e.Key.Label())
		opts = append(opts, huh.NewOption(label, Action{Kind: ActionJump, Target: e.State}))
	}
	opts = append(opts, huh.NewOption("Abort", Action{Kind: ActionAbort}))

	return huh.NewSelect[Action]().
		Title("Is this correct?").
		Options(opts...).
		Value(value)
}

// RenderSummary formats answers as an aligned key/value listing.
func RenderSummary(answers registry.Snapshot) string {
	lines := make([]string, 0, len(answers))
	for _, e := range answers {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			summaryKeyStyle.Render(e.Key.Label()),
			summaryValueStyle.Render(e.Value),
		))
	}
	return strings.Join(lines, "\n")
}
