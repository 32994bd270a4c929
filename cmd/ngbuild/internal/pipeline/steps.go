package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/cockroachdb/errors"
)

const (
	// BuildTreeURL is cloned by the fetch-build-tree step.
	BuildTreeURL = "https://github.com/armbian/build"
	// BuildTreeDir is the clone location below the work directory.
	BuildTreeDir = "armbian-build"
	// HandoffFile is written to the work directory before any build step.
	HandoffFile = "ngbuild-options.yml"
)

// ErrBranchMismatch is returned when an existing build tree is checked out at
// a different branch than requested.
var ErrBranchMismatch = errors.New("build tree is on a different branch")

// DefaultSteps returns the build steps in execution order.
func DefaultSteps() []Step {
	return []Step{
		{Name: "write-options", Run: writeOptions},
		{Name: "fetch-build-tree", Run: fetchBuildTree},
		{Name: "kernel", When: buildsKernel, Run: stub(registry.KernelBranch, registry.KernelConfigPolicy)},
		{Name: "u-boot", When: buildsUBoot, Run: stub(registry.TargetBoard)},
		{Name: "rootfs", When: buildsImage, Run: stub(registry.Distribution, registry.ImageType)},
		{Name: "boot", When: buildsImage, Run: stub(registry.TargetBoard)},
		{Name: "image", When: buildsImage, Run: stub(registry.TargetBoard, registry.Distribution, registry.ImageType)},
	}
}

func buildsKernel(scope string) bool {
	return scope == "image" || scope == "uboot-kernel" || scope == "kernel"
}

func buildsUBoot(scope string) bool {
	return scope == "image" || scope == "uboot-kernel" || scope == "uboot"
}

func buildsImage(scope string) bool {
	return scope == "image"
}

func writeOptions(_ context.Context, env Env) error {
	if err := os.MkdirAll(env.WorkDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create work directory")
	}
	path := filepath.Join(env.WorkDir, HandoffFile)
	if err := WriteHandoffFile(path, env.Options); err != nil {
		return err
	}
	env.Logger.Info("options written", "path", path)
	return nil
}

func fetchBuildTree(ctx context.Context, env Env) error {
	tree := filepath.Join(env.WorkDir, BuildTreeDir)
	if _, err := os.Stat(filepath.Join(tree, ".git")); err == nil {
		branch, err := env.Exec.InSubdir(BuildTreeDir).Output(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return err
		}
		if branch != env.ArmbianBranch {
			return errors.Wrapf(ErrBranchMismatch, "%s is on %q, want %q", tree, branch, env.ArmbianBranch)
		}
		env.Logger.Info("build tree present", "path", tree, "branch", branch)
		return nil
	}

	env.Logger.Info("cloning build tree", "url", BuildTreeURL, "branch", env.ArmbianBranch)
	return env.Exec.Run(ctx, "git", "clone", "--depth", "1", "--branch", env.ArmbianBranch, BuildTreeURL, BuildTreeDir)
}

// stub logs the options a step consumes. Compiling is done by the build tree.
func stub(keys ...registry.Key) func(context.Context, Env) error {
	return func(_ context.Context, env Env) error {
		kv := make([]any, 0, 2*len(keys)+2)
		for _, k := range keys {
			v, _ := env.Options.Value(k)
			kv = append(kv, string(k), v)
		}
		kv = append(kv, "env", env.Exec.Env())
		env.Logger.Info("not implemented, skipping", kv...)
		return nil
	}
}
