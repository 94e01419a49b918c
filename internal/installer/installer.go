// Package installer implements the interactive first-run flow that
// provisions Node.js and openclaw when the runtime detector reports them
// absent.
//
// The flow is TTY-gated: in non-interactive environments it prints manual
// installation instructions instead of blocking on a prompt. All commands
// run through the same Runner interface the delegator uses, so the flow is
// testable without touching the network.
package installer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/peakxl/chitin/internal/delegate"
	"github.com/peakxl/chitin/internal/logging"
	"github.com/peakxl/chitin/internal/nodejs"
)

// ErrDeclined means the user cancelled the installation.
var ErrDeclined = errors.New("installation cancelled")

// ErrNonInteractive means no prompt could be shown; manual instructions
// were printed instead.
var ErrNonInteractive = errors.New("openclaw is not installed and no interactive terminal is available")

// PackageManager is the user's install-tool choice.
type PackageManager string

const (
	Pnpm PackageManager = "pnpm"
	Npm  PackageManager = "npm"
)

// installArgs returns the command that globally installs openclaw with pm.
func (pm PackageManager) installArgs() (string, []string) {
	if pm == Npm {
		return "npm", []string{"install", "-g", nodejs.OpenclawBinary + "@latest"}
	}
	return "pnpm", []string{"add", "-g", nodejs.OpenclawBinary + "@latest"}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// Installer drives the first-run setup.
type Installer struct {
	detector *nodejs.Detector
	runner   delegate.Runner
	in       *bufio.Scanner
	out      io.Writer
	isTTY    func() bool
}

// New returns an Installer reading prompts from in and writing to out.
func New(detector *nodejs.Detector, runner delegate.Runner, in io.Reader, out io.Writer) *Installer {
	return &Installer{
		detector: detector,
		runner:   runner,
		// One scanner for the whole flow: a fresh scanner per prompt would
		// drop input it buffered past the first line.
		in:  bufio.NewScanner(in),
		out: out,
		isTTY: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

// NewWithTTY returns an Installer with an injected TTY check for tests.
func NewWithTTY(
	detector *nodejs.Detector,
	runner delegate.Runner,
	in io.Reader,
	out io.Writer,
	isTTY func() bool,
) *Installer {
	i := New(detector, runner, in, out)
	i.isTTY = isTTY
	return i
}

// Run executes the installation flow. On success openclaw is globally
// installed and locatable by the detector.
func (i *Installer) Run(ctx context.Context) error {
	fmt.Fprintln(i.out)
	fmt.Fprintln(i.out, titleStyle.Render("OpenClaw requires Node.js >= 22 and a package manager."))
	fmt.Fprintln(i.out)

	if !i.isTTY() {
		i.printManualInstructions()
		return ErrNonInteractive
	}

	hasNode := i.detector.HasNode()
	hasPnpm := i.detector.HasPnpm()
	hasNpm := i.detector.HasNpm()

	switch {
	case hasNode && (hasPnpm || hasNpm):
		pm := Npm
		if hasPnpm {
			fmt.Fprintln(i.out, "Found Node.js and pnpm installed.")
			pm = Pnpm
		} else {
			fmt.Fprintln(i.out, "Found Node.js and npm installed.")
		}
		if !i.confirm("Install openclaw now?", true) {
			return ErrDeclined
		}
		return i.installOpenclaw(ctx, pm)

	case hasNode:
		fmt.Fprintln(i.out, "Found Node.js but no package manager (pnpm/npm).")
		pm := i.selectPackageManager()
		if pm == Pnpm {
			if !i.confirm("Install pnpm now?", true) {
				return ErrDeclined
			}
			if err := i.bootstrapPnpm(ctx, false); err != nil {
				return err
			}
		}
		return i.installOpenclaw(ctx, pm)

	default:
		fmt.Fprintln(i.out, "Node.js is not installed.")
		pm := i.selectPackageManager()
		if pm != Pnpm {
			// npm needs a system Node.js install we cannot drive for the
			// user; hand over instructions.
			i.printNodeInstructions()
			return ErrNonInteractive
		}
		if !i.confirm("Install pnpm and Node.js 22 now?", true) {
			return ErrDeclined
		}
		if err := i.bootstrapPnpm(ctx, true); err != nil {
			return err
		}
		return i.installOpenclaw(ctx, Pnpm)
	}
}

// bootstrapPnpm installs pnpm via its official installer, and optionally a
// global Node.js 22 through it.
func (i *Installer) bootstrapPnpm(ctx context.Context, withNode bool) error {
	fmt.Fprintln(i.out, "Installing pnpm...")
	res, err := i.runner.Inherit(ctx, "sh", "-c", "curl -fsSL https://get.pnpm.io/install.sh | sh -")
	if err != nil {
		return fmt.Errorf("running pnpm installer: %w", err)
	}
	if res.ExitCode != 0 {
		return errors.New("pnpm installation failed")
	}

	if !withNode {
		return nil
	}

	fmt.Fprintln(i.out, "Installing Node.js 22 via pnpm...")
	res, err = i.runner.Inherit(ctx, "pnpm", "env", "use", "--global", "22")
	if err != nil {
		return fmt.Errorf("installing Node.js via pnpm: %w", err)
	}
	if res.ExitCode != 0 {
		return errors.New("node.js installation via pnpm failed")
	}
	fmt.Fprintln(i.out, "Node.js 22 installed successfully.")
	return nil
}

// installOpenclaw performs the global package install and verifies the
// result is locatable.
func (i *Installer) installOpenclaw(ctx context.Context, pm PackageManager) error {
	fmt.Fprintln(i.out)
	fmt.Fprintf(i.out, "Installing openclaw via %s...\n", pm)

	name, args := pm.installArgs()
	res, err := i.runner.Inherit(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("running %s install: %w", pm, err)
	}
	if res.ExitCode != 0 {
		return errors.New("openclaw installation failed")
	}

	if _, err := i.detector.Locate(); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "installer").
			Err(err).
			Msg("openclaw installed but not locatable yet")
		fmt.Fprintln(i.out, hintStyle.Render("Note: open a new shell if openclaw is not on your PATH yet."))
	}

	fmt.Fprintln(i.out)
	fmt.Fprintln(i.out, "Installation complete! Run 'chitin onboard' to get started.")
	return nil
}

// selectPackageManager prompts for the install tool, defaulting to pnpm.
func (i *Installer) selectPackageManager() PackageManager {
	fmt.Fprintln(i.out)
	fmt.Fprintln(i.out, "Select a package manager to install openclaw:")
	fmt.Fprintln(i.out)
	fmt.Fprintln(i.out, "  [1] pnpm "+hintStyle.Render("(Recommended)"))
	fmt.Fprintln(i.out, "  [2] npm")
	fmt.Fprintln(i.out)
	fmt.Fprint(i.out, "Enter choice [1-2]: ")

	switch i.readLine() {
	case "2":
		return Npm
	case "", "1":
		return Pnpm
	default:
		fmt.Fprintln(i.out, "Invalid choice, defaulting to pnpm")
		return Pnpm
	}
}

// confirm asks a y/N question. Empty input takes the default; EOF declines.
func (i *Installer) confirm(message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(i.out, "%s %s: ", message, hint)

	switch strings.ToLower(i.readLine()) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	case "":
		return defaultYes
	default:
		return defaultYes
	}
}

func (i *Installer) readLine() string {
	if !i.in.Scan() {
		return ""
	}
	return strings.TrimSpace(i.in.Text())
}

func (i *Installer) printManualInstructions() {
	w := i.out
	fmt.Fprintln(w, "Running in non-interactive mode. Please install manually:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Option 1 (Recommended): Install pnpm + Node.js")
	fmt.Fprintln(w, "  curl -fsSL https://get.pnpm.io/install.sh | sh -")
	fmt.Fprintln(w, "  pnpm env use --global 22")
	fmt.Fprintln(w, "  pnpm add -g openclaw@latest")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Option 2: Install Node.js via system package manager")
	fmt.Fprintln(w, "  # Debian/Ubuntu:")
	fmt.Fprintln(w, "  curl -fsSL https://deb.nodesource.com/setup_22.x | sudo -E bash -")
	fmt.Fprintln(w, "  sudo apt-get install -y nodejs")
	fmt.Fprintln(w, "  npm install -g openclaw@latest")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Then run 'chitin onboard' to get started.")
}

func (i *Installer) printNodeInstructions() {
	w := i.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To use npm, you need to install Node.js first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Install Node.js using your system package manager:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Debian/Ubuntu:")
	fmt.Fprintln(w, "  curl -fsSL https://deb.nodesource.com/setup_22.x | sudo -E bash -")
	fmt.Fprintln(w, "  sudo apt-get install -y nodejs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # macOS (Homebrew):")
	fmt.Fprintln(w, "  brew install node@22")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Or download from: https://nodejs.org/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "After installing Node.js, run this command again.")
}
