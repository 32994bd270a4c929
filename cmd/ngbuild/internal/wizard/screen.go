package wizard

import (
	"slices"

	"github.com/advdv/ngbuild/cmd/ngbuild/internal/catalog"
	"github.com/advdv/ngbuild/cmd/ngbuild/internal/registry"
	"github.com/cockroachdb/errors"
)

// Choice is one legal value of a screen. Tag is what gets recorded, Label is
// what the operator sees.
type Choice struct {
	Tag   string
	Label string
}

// DomainFunc returns the legal values of a screen. It is evaluated every
// time the screen is entered.
type DomainFunc func() ([]Choice, error)

// StaticDomain returns a DomainFunc over a fixed list.
func StaticDomain(choices ...Choice) DomainFunc {
	return func() ([]Choice, error) {
		return choices, nil
	}
}

// Screen declares one data-entry state.
type Screen struct {
	State       State
	Key         registry.Key
	Title       string
	Description string
	// Default is preselected when nothing better is known. Empty means the
	// first choice of the domain.
	Default string
	Domain  DomainFunc
}

// SkipFunc decides on entry whether a state should be passed over, given the
// answers recorded so far.
type SkipFunc func(answers registry.Snapshot) bool

// SkipRules maps states to their skip predicate.
type SkipRules map[State]SkipFunc

// Build scope tags.
const (
	ScopeImage       = "image"
	ScopeUBootKernel = "uboot-kernel"
	ScopeUBoot       = "uboot"
	ScopeKernel      = "kernel"
)

// DefaultSkipRules passes over the kernel configuration screen when no kernel
// is built, and over the image type screen when no image is built.
func DefaultSkipRules() SkipRules {
	return SkipRules{
		StateKernelConfigPolicy: func(answers registry.Snapshot) bool {
			scope, _ := answers.Value(registry.BuildScope)
			return scope == ScopeUBoot
		},
		StateImageType: func(answers registry.Snapshot) bool {
			scope, ok := answers.Value(registry.BuildScope)
			return ok && scope != ScopeImage
		},
	}
}

// DefaultScreens returns the screen table of a session. The target board
// domain is supplied by the caller, normally through CatalogDomain.
func DefaultScreens(targets DomainFunc) []Screen {
	return []Screen{
		{
			State:       StateBuildScope,
			Key:         registry.BuildScope,
			Title:       "What to build",
			Description: "Packages are placed in the output directory of the build tree",
			Default:     ScopeImage,
			Domain: StaticDomain(
				Choice{Tag: ScopeImage, Label: "Full OS image for flashing"},
				Choice{Tag: ScopeUBootKernel, Label: "U-boot and kernel packages"},
				Choice{Tag: ScopeUBoot, Label: "U-boot package only"},
				Choice{Tag: ScopeKernel, Label: "Kernel package only"},
			),
		},
		{
			State:       StateKernelConfigPolicy,
			Key:         registry.KernelConfigPolicy,
			Title:       "Kernel configuration",
			Description: "Whether to open the kernel configuration menu before compiling",
			Default:     "keep",
			Domain: StaticDomain(
				Choice{Tag: "keep", Label: "Do not change the kernel configuration"},
				Choice{Tag: "menuconfig", Label: "Show a kernel configuration menu before compilation"},
			),
		},
		{
			State:       StateTargetBoard,
			Key:         registry.TargetBoard,
			Title:       "Target board",
			Description: "Boards are read from the target definition directory",
			Domain:      targets,
		},
		{
			State:       StateKernelBranch,
			Key:         registry.KernelBranch,
			Title:       "Kernel branch",
			Description: "Kernel source branch to build from",
			Default:     "current",
			Domain: StaticDomain(
				Choice{Tag: "legacy", Label: "Old stable / vendor kernel"},
				Choice{Tag: "current", Label: "Recommended, mainline LTS kernel"},
				Choice{Tag: "dev", Label: "Development version, fresh mainline"},
			),
		},
		{
			State:       StateDistribution,
			Key:         registry.Distribution,
			Title:       "Distribution",
			Description: "Userspace release of the root filesystem",
			Default:     "buster",
			Domain: StaticDomain(
				Choice{Tag: "buster", Label: "Debian 10 Buster"},
				Choice{Tag: "stretch", Label: "Debian 9 Stretch"},
				Choice{Tag: "bionic", Label: "Ubuntu Bionic 18.04 LTS"},
				Choice{Tag: "disco", Label: "Ubuntu Disco 19.04"},
			),
		},
		{
			State:       StateImageType,
			Key:         registry.ImageType,
			Title:       "Image type",
			Description: "Software selection of the image",
			Default:     "cli-server",
			Domain: StaticDomain(
				Choice{Tag: "cli-minimal", Label: "Minimal console image"},
				Choice{Tag: "cli-server", Label: "Server console image"},
				Choice{Tag: "desktop", Label: "Image with desktop environment"},
			),
		},
	}
}

// CatalogDomain offers the boards found in dir, ordered by name. The
// directory is scanned on first use and the result is kept for the rest of
// the session.
func CatalogDomain(r *catalog.Resolver, dir string) DomainFunc {
	var choices []Choice
	return func() ([]Choice, error) {
		if choices != nil {
			return choices, nil
		}

		cat, err := r.Resolve(dir)
		if err != nil {
			return nil, err
		}
		if cat.Len() == 0 {
			return nil, errors.Mark(
				errors.Newf("no buildable targets in %s", dir),
				catalog.ErrCatalogUnavailable,
			)
		}

		for _, t := range cat.Sorted() {
			choices = append(choices, Choice{Tag: t.Board, Label: t.Label()})
		}
		return choices, nil
	}
}

// ValidateAnswers checks answers that were not collected by a session, such
// as a reused options file. Every screen needs an answer inside its domain.
func ValidateAnswers(screens []Screen, answers registry.Snapshot) error {
	for _, sc := range screens {
		v, ok := answers.Value(sc.Key)
		if !ok {
			return errors.Newf("no answer for %s", sc.Key)
		}
		choices, err := sc.Domain()
		if err != nil {
			return errors.Wrapf(err, "failed to evaluate %s", sc.State)
		}
		if !slices.ContainsFunc(choices, func(c Choice) bool { return c.Tag == v }) {
			return errors.Wrapf(ErrInvalidSelection, "%s: %q", sc.Key, v)
		}
	}
	return nil
}
