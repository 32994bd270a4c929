package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/session"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/wizard"
	"github.com/cockroachdb/errors"
)

type scriptedPrompter struct {
	actions []wizard.Action
	states  []wizard.State
}

func (p *scriptedPrompter) Prompt(_ context.Context, view wizard.View) (wizard.Action, error) {
	p.states = append(p.states, view.State)
	if len(p.actions) == 0 {
		return wizard.Action{}, errors.New("script exhausted")
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func acceptAll(n int) []wizard.Action {
	return make([]wizard.Action, n)
}

func targetDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("accepting every default yields the declared defaults", func(t *testing.T) {
		t.Parallel()
		dir := targetDir(t, "rock64.conf", "orangepi-zero.csc", "nanopi.wip")
		prompter := &scriptedPrompter{actions: acceptAll(8)}

		reg, err := session.Run(context.Background(), session.Options{
			TargetDir: dir,
			Prompter:  prompter,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reg.IsComplete() {
			t.Fatalf("expected complete registry, missing %v", reg.Missing())
		}

		want := map[registry.Key]string{
			registry.BuildScope:         "image",
			registry.KernelConfigPolicy: "keep",
			registry.TargetBoard:        "nanopi",
			registry.KernelBranch:       "current",
			registry.Distribution:       "buster",
			registry.ImageType:          "cli-server",
		}
		got := reg.ReadAll().Map()
		if len(got) != len(want) {
			t.Fatalf("expected %d keys, got %v", len(want), got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("%s: expected %q, got %q", k, v, got[k])
			}
		}
	})

	t.Run("abort at kernel branch returns no registry", func(t *testing.T) {
		t.Parallel()
		dir := targetDir(t, "rock64.conf")
		actions := append(acceptAll(4), wizard.Action{Kind: wizard.ActionAbort})
		prompter := &scriptedPrompter{actions: actions}

		reg, err := session.Run(context.Background(), session.Options{
			TargetDir: dir,
			Prompter:  prompter,
		})
		if !errors.Is(err, session.ErrSessionAborted) {
			t.Fatalf("expected ErrSessionAborted, got %v", err)
		}
		if reg != nil {
			t.Error("expected nil registry")
		}
		if last := prompter.states[len(prompter.states)-1]; last != wizard.StateKernelBranch {
			t.Errorf("expected abort on KernelBranch, got %s", last)
		}
	})

	t.Run("missing target directory fails before any screen", func(t *testing.T) {
		t.Parallel()
		prompter := &scriptedPrompter{actions: acceptAll(8)}

		_, err := session.Run(context.Background(), session.Options{
			TargetDir: filepath.Join(t.TempDir(), "missing"),
			Prompter:  prompter,
		})
		if !errors.Is(err, session.ErrCatalogUnavailable) {
			t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
		}
		if len(prompter.states) != 0 {
			t.Errorf("expected no screen to be shown, got %v", prompter.states)
		}
	})

	t.Run("empty target directory is fatal on the board screen", func(t *testing.T) {
		t.Parallel()
		prompter := &scriptedPrompter{actions: acceptAll(8)}

		_, err := session.Run(context.Background(), session.Options{
			TargetDir: targetDir(t, "foo"),
			Prompter:  prompter,
		})
		if !errors.Is(err, session.ErrCatalogUnavailable) {
			t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
		}
	})

	t.Run("seeds preselect answers", func(t *testing.T) {
		t.Parallel()
		dir := targetDir(t, "rock64.conf", "nanopi.wip")
		prompter := &scriptedPrompter{actions: acceptAll(8)}

		reg, err := session.Run(context.Background(), session.Options{
			TargetDir: dir,
			Prompter:  prompter,
			Seeds: map[registry.Key]string{
				registry.TargetBoard:  "rock64",
				registry.KernelBranch: "dev",
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v, _ := reg.Get(registry.TargetBoard); v != "rock64" {
			t.Errorf("expected 'rock64', got %q", v)
		}
		if v, _ := reg.Get(registry.KernelBranch); v != "dev" {
			t.Errorf("expected 'dev', got %q", v)
		}
	})

	t.Run("observers see every transition", func(t *testing.T) {
		t.Parallel()
		dir := targetDir(t, "rock64.conf")
		var transitions []wizard.Transition

		_, err := session.Run(context.Background(), session.Options{
			TargetDir: dir,
			Prompter:  &scriptedPrompter{actions: acceptAll(8)},
			Observers: []wizard.Observer{func(tr wizard.Transition) {
				transitions = append(transitions, tr)
			}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(transitions) != 8 {
			t.Errorf("expected 8 transitions, got %d", len(transitions))
		}
	})

	t.Run("requires a prompter", func(t *testing.T) {
		t.Parallel()
		if _, err := session.Run(context.Background(), session.Options{TargetDir: t.TempDir()}); err == nil {
			t.Fatal("expected error without prompter")
		}
	})
}
