package wizard_test

import (
	"slices"
	"testing"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/catalog"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/cockroachdb/errors"
)

func boardDomain(boards ...string) wizard.DomainFunc {
	choices := make([]wizard.Choice, 0, len(boards))
	for _, b := range boards {
		choices = append(choices, wizard.Choice{Tag: b, Label: b})
	}
	return wizard.StaticDomain(choices...)
}

func newSequencer(t *testing.T, opts ...wizard.SequencerOption) *wizard.Sequencer {
	t.Helper()
	opts = append([]wizard.SequencerOption{wizard.WithSkipRules(wizard.DefaultSkipRules())}, opts...)
	seq, err := wizard.NewSequencer(wizard.DefaultScreens(boardDomain("nanopi", "rock64")), opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return seq
}

func commitAll(t *testing.T, seq *wizard.Sequencer, values ...string) {
	t.Helper()
	for _, v := range values {
		if err := seq.Commit(v); err != nil {
			t.Fatalf("commit %q on %s: %v", v, seq.Current(), err)
		}
	}
}

func TestSequencer_Defaults(t *testing.T) {
	t.Parallel()
	seq := newSequencer(t)

	want := []wizard.State{
		wizard.StateIntro,
		wizard.StateBuildScope,
		wizard.StateKernelConfigPolicy,
		wizard.StateTargetBoard,
		wizard.StateKernelBranch,
		wizard.StateDistribution,
		wizard.StateImageType,
		wizard.StateSummary,
	}
	for _, st := range want {
		if seq.Current() != st {
			t.Fatalf("expected %s, got %s", st, seq.Current())
		}
		commitAll(t, seq, "")
	}
	if seq.Current() != wizard.StateDone {
		t.Fatalf("expected Done, got %s", seq.Current())
	}

	reg, err := seq.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.IsComplete() {
		t.Fatalf("expected complete registry, missing %v", reg.Missing())
	}

	expected := registry.Snapshot{
		{Key: registry.BuildScope, Value: "image"},
		{Key: registry.KernelConfigPolicy, Value: "keep"},
		{Key: registry.TargetBoard, Value: "nanopi"},
		{Key: registry.KernelBranch, Value: "current"},
		{Key: registry.Distribution, Value: "buster"},
		{Key: registry.ImageType, Value: "cli-server"},
	}
	if got := reg.ReadAll(); !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestSequencer_InvalidSelection(t *testing.T) {
	t.Parallel()

	t.Run("rejected value leaves state and registry alone", func(t *testing.T) {
		t.Parallel()
		var transitions []wizard.Transition
		seq := newSequencer(t, wizard.WithObserver(func(tr wizard.Transition) {
			transitions = append(transitions, tr)
		}))
		commitAll(t, seq, "", "kernel")

		if err := seq.Back(); err != nil {
			t.Fatal(err)
		}
		before := len(transitions)

		err := seq.Commit("rootfs")
		if !errors.Is(err, wizard.ErrInvalidSelection) {
			t.Fatalf("expected ErrInvalidSelection, got %v", err)
		}
		if seq.Current() != wizard.StateBuildScope {
			t.Errorf("expected to stay on BuildScope, got %s", seq.Current())
		}
		if len(transitions) != before {
			t.Errorf("expected no transition, got %v", transitions[before:])
		}

		view := seq.View()
		if view.Selected != "kernel" {
			t.Errorf("expected earlier answer 'kernel' to stay selected, got %q", view.Selected)
		}
		if view.Notice == "" {
			t.Error("expected a notice explaining the rejection")
		}
	})

	t.Run("target board outside the catalog is rejected", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "", "")

		if err := seq.Commit("pine64"); !errors.Is(err, wizard.ErrInvalidSelection) {
			t.Fatalf("expected ErrInvalidSelection, got %v", err)
		}
		commitAll(t, seq, "rock64")
		if seq.Current() != wizard.StateKernelBranch {
			t.Errorf("expected KernelBranch, got %s", seq.Current())
		}
	})

	t.Run("notice is cleared after a valid commit", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "")
		_ = seq.Commit("bogus")
		commitAll(t, seq, "image")

		if seq.View().Notice != "" {
			t.Errorf("expected no notice on the next screen, got %q", seq.View().Notice)
		}
	})
}

func TestSequencer_Back(t *testing.T) {
	t.Parallel()

	t.Run("recommit overwrites the earlier answer", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "kernel", "menuconfig")

		if err := seq.Back(); err != nil {
			t.Fatal(err)
		}
		if err := seq.Back(); err != nil {
			t.Fatal(err)
		}
		if seq.Current() != wizard.StateBuildScope {
			t.Fatalf("expected BuildScope, got %s", seq.Current())
		}
		if seq.View().Selected != "kernel" {
			t.Errorf("expected 'kernel' preselected, got %q", seq.View().Selected)
		}

		commitAll(t, seq, "image", "", "", "", "", "", "")
		reg, err := seq.Result()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		snap := reg.ReadAll()
		if len(snap) != len(registry.Keys()) {
			t.Errorf("expected %d entries, got %d", len(registry.Keys()), len(snap))
		}
		if v, _ := reg.Get(registry.BuildScope); v != "image" {
			t.Errorf("expected 'image', got %q", v)
		}
		if v, _ := reg.Get(registry.KernelConfigPolicy); v != "menuconfig" {
			t.Errorf("expected 'menuconfig' to be kept, got %q", v)
		}
	})

	t.Run("first data screen goes back to intro", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "")
		if err := seq.Back(); err != nil {
			t.Fatal(err)
		}
		if seq.Current() != wizard.StateIntro {
			t.Errorf("expected Intro, got %s", seq.Current())
		}
		if err := seq.Back(); err == nil {
			t.Error("expected error going back from Intro")
		}
	})

	t.Run("skipped states are passed over", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "uboot")
		if seq.Current() != wizard.StateTargetBoard {
			t.Fatalf("expected TargetBoard, got %s", seq.Current())
		}
		if err := seq.Back(); err != nil {
			t.Fatal(err)
		}
		if seq.Current() != wizard.StateBuildScope {
			t.Errorf("expected BuildScope, got %s", seq.Current())
		}
	})
}

func TestSequencer_Transitions(t *testing.T) {
	t.Parallel()
	var transitions []wizard.Transition
	seq := newSequencer(t, wizard.WithObserver(func(tr wizard.Transition) {
		transitions = append(transitions, tr)
	}))
	commitAll(t, seq, "", "", "", "rock64", "", "", "", "")

	if len(transitions) != 8 {
		t.Fatalf("expected 8 transitions, got %d: %v", len(transitions), transitions)
	}

	first := transitions[0]
	if first.From != wizard.StateIntro || first.To != wizard.StateBuildScope || first.Key != "" {
		t.Errorf("unexpected first transition %+v", first)
	}

	board := transitions[3]
	want := wizard.Transition{
		From:  wizard.StateTargetBoard,
		To:    wizard.StateKernelBranch,
		Key:   registry.TargetBoard,
		Value: "rock64",
	}
	if board != want {
		t.Errorf("expected %+v, got %+v", want, board)
	}

	last := transitions[7]
	if last.From != wizard.StateSummary || last.To != wizard.StateDone || last.Key != "" {
		t.Errorf("unexpected last transition %+v", last)
	}
}

func TestSequencer_Skip(t *testing.T) {
	t.Parallel()
	var skipped []wizard.State
	seq := newSequencer(t, wizard.WithObserver(func(tr wizard.Transition) {
		if tr.Skipped {
			skipped = append(skipped, tr.From)
		}
	}))
	commitAll(t, seq, "", "uboot", "", "", "")

	if seq.Current() != wizard.StateSummary {
		t.Fatalf("expected Summary, got %s", seq.Current())
	}
	if !slices.Equal(skipped, []wizard.State{wizard.StateKernelConfigPolicy, wizard.StateImageType}) {
		t.Errorf("unexpected skipped states %v", skipped)
	}

	view := seq.View()
	if len(view.Summary) != len(registry.Keys()) {
		t.Errorf("expected every key answered, got %v", view.Summary)
	}
	for _, e := range view.Editable {
		if e.State == wizard.StateKernelConfigPolicy || e.State == wizard.StateImageType {
			t.Errorf("skipped state %s offered for editing", e.State)
		}
	}
}

func TestSequencer_Seeds(t *testing.T) {
	t.Parallel()
	seq := newSequencer(t, wizard.WithSeeds(map[registry.Key]string{
		registry.TargetBoard:  "rock64",
		registry.KernelBranch: "dev",
		registry.Distribution: "jessie",
	}))
	commitAll(t, seq, "", "", "")

	for _, want := range []string{"rock64", "dev", "buster"} {
		if got := seq.View().Selected; got != want {
			t.Errorf("on %s: expected %q preselected, got %q", seq.Current(), want, got)
		}
		commitAll(t, seq, "")
	}
}

func TestSequencer_JumpTo(t *testing.T) {
	t.Parallel()

	t.Run("edits from summary and runs forward again", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "", "", "", "", "", "")
		if seq.Current() != wizard.StateSummary {
			t.Fatalf("expected Summary, got %s", seq.Current())
		}

		if err := seq.JumpTo(wizard.StateDistribution); err != nil {
			t.Fatal(err)
		}
		if seq.View().Selected != "buster" {
			t.Errorf("expected 'buster' preselected, got %q", seq.View().Selected)
		}
		commitAll(t, seq, "bionic")
		if seq.Current() != wizard.StateImageType {
			t.Fatalf("expected ImageType, got %s", seq.Current())
		}
		commitAll(t, seq, "", "")

		reg, err := seq.Result()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v, _ := reg.Get(registry.Distribution); v != "bionic" {
			t.Errorf("expected 'bionic', got %q", v)
		}
		if n := len(reg.ReadAll()); n != len(registry.Keys()) {
			t.Errorf("expected %d entries, got %d", len(registry.Keys()), n)
		}
	})

	t.Run("changing scope re-evaluates skip rules", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "", "", "", "", "", "desktop")

		if err := seq.JumpTo(wizard.StateBuildScope); err != nil {
			t.Fatal(err)
		}
		commitAll(t, seq, "uboot-kernel", "", "", "", "")
		if seq.Current() != wizard.StateSummary {
			t.Fatalf("expected ImageType to be skipped, got %s", seq.Current())
		}
	})

	t.Run("only from summary", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "")
		if err := seq.JumpTo(wizard.StateBuildScope); err == nil {
			t.Error("expected error jumping from KernelConfigPolicy")
		}
	})

	t.Run("not to skipped states", func(t *testing.T) {
		t.Parallel()
		seq := newSequencer(t)
		commitAll(t, seq, "", "uboot", "", "", "")
		if err := seq.JumpTo(wizard.StateKernelConfigPolicy); err == nil {
			t.Error("expected error jumping to a skipped state")
		}
	})

	t.Run("stale answer falls back to a legal value", func(t *testing.T) {
		t.Parallel()
		boards := []wizard.Choice{{Tag: "nanopi"}, {Tag: "rock64"}}
		domain := func() ([]wizard.Choice, error) { return boards, nil }
		seq, err := wizard.NewSequencer(wizard.DefaultScreens(domain))
		if err != nil {
			t.Fatal(err)
		}
		commitAll(t, seq, "", "", "", "rock64", "", "", "")

		boards = boards[:1]
		if err := seq.JumpTo(wizard.StateTargetBoard); err != nil {
			t.Fatal(err)
		}
		if got := seq.View().Selected; got != "nanopi" {
			t.Errorf("expected fallback to 'nanopi', got %q", got)
		}
	})
}

func TestSequencer_Abort(t *testing.T) {
	t.Parallel()
	seq := newSequencer(t)
	commitAll(t, seq, "", "", "", "")
	seq.Abort()

	if !seq.Aborted() {
		t.Error("expected sequencer to be aborted")
	}
	if err := seq.Commit(""); !errors.Is(err, wizard.ErrSessionAborted) {
		t.Errorf("expected ErrSessionAborted from Commit, got %v", err)
	}
	reg, err := seq.Result()
	if !errors.Is(err, wizard.ErrSessionAborted) {
		t.Errorf("expected ErrSessionAborted from Result, got %v", err)
	}
	if reg != nil {
		t.Error("expected no registry after abort")
	}
}

func TestSequencer_DomainFailure(t *testing.T) {
	t.Parallel()
	failing := func() ([]wizard.Choice, error) {
		return nil, errors.Mark(errors.New("gone"), catalog.ErrCatalogUnavailable)
	}
	seq, err := wizard.NewSequencer(wizard.DefaultScreens(failing))
	if err != nil {
		t.Fatal(err)
	}
	commitAll(t, seq, "", "")

	err = seq.Commit("")
	if !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestSequencer_ResultBeforeDone(t *testing.T) {
	t.Parallel()
	seq := newSequencer(t)
	if _, err := seq.Result(); err == nil {
		t.Error("expected error before Done")
	}
}

func TestNewSequencer(t *testing.T) {
	t.Parallel()

	t.Run("requires every data-entry screen", func(t *testing.T) {
		t.Parallel()
		screens := wizard.DefaultScreens(boardDomain("rock64"))
		if _, err := wizard.NewSequencer(screens[1:]); err == nil {
			t.Error("expected error for missing screen")
		}
	})

	t.Run("rejects duplicate screens", func(t *testing.T) {
		t.Parallel()
		screens := wizard.DefaultScreens(boardDomain("rock64"))
		screens = append(screens, screens[0])
		if _, err := wizard.NewSequencer(screens); err == nil {
			t.Error("expected error for duplicate screen")
		}
	})

	t.Run("rejects screens for non-data states", func(t *testing.T) {
		t.Parallel()
		screens := wizard.DefaultScreens(boardDomain("rock64"))
		screens = append(screens, wizard.Screen{State: wizard.StateSummary, Domain: boardDomain("x")})
		if _, err := wizard.NewSequencer(screens); err == nil {
			t.Error("expected error for Summary screen")
		}
	})
}
