// Package nodejs locates the Node.js runtime and the openclaw installation
// that chitin delegates to.
//
// openclaw is preferably run through its executable shim on PATH (which
// handles pnpm/npm wrapper scripts itself); when no shim is found, the
// package falls back to running the .mjs entrypoint with node directly,
// searching the pnpm and npm global install layouts.
package nodejs

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OpenclawBinary is the wrapped CLI's executable name.
const OpenclawBinary = "openclaw"

// ErrNotInstalled indicates no openclaw installation could be located.
var ErrNotInstalled = errors.New("openclaw installation not found")

// Invocation describes how to start openclaw: the executable plus any
// arguments that come before the user's own.
type Invocation struct {
	Name string
	Args []string
}

// Command returns the full argument list for running openclaw with args.
func (i Invocation) Command(args ...string) (string, []string) {
	return i.Name, append(append([]string{}, i.Args...), args...)
}

// Detector probes the environment for Node.js tooling and the openclaw
// install. lookPath and home are injectable for tests.
type Detector struct {
	binOverride string
	lookPath    func(string) (string, error)
	home        func() (string, error)
}

// NewDetector returns a Detector. binOverride, when non-empty, pins the
// openclaw executable and skips discovery entirely.
func NewDetector(binOverride string) *Detector {
	return &Detector{
		binOverride: binOverride,
		lookPath:    exec.LookPath,
		home:        os.UserHomeDir,
	}
}

// NewDetectorWithLookup returns a Detector with injected lookup functions.
func NewDetectorWithLookup(
	binOverride string,
	lookPath func(string) (string, error),
	home func() (string, error),
) *Detector {
	return &Detector{binOverride: binOverride, lookPath: lookPath, home: home}
}

// HasNode reports whether a node binary is on PATH.
func (d *Detector) HasNode() bool {
	_, err := d.lookPath("node")
	return err == nil
}

// HasPnpm reports whether pnpm is on PATH.
func (d *Detector) HasPnpm() bool {
	_, err := d.lookPath("pnpm")
	return err == nil
}

// HasNpm reports whether npm is on PATH.
func (d *Detector) HasNpm() bool {
	_, err := d.lookPath("npm")
	return err == nil
}

// PreferredPackageManager returns the package manager to install openclaw
// with, preferring pnpm. ok is false when neither is available.
func (d *Detector) PreferredPackageManager() (name string, ok bool) {
	if d.HasPnpm() {
		return "pnpm", true
	}
	if d.HasNpm() {
		return "npm", true
	}
	return "", false
}

// Locate resolves how to run openclaw. Order: configured override, the
// executable shim on PATH, then node + the .mjs entrypoint from a global
// install. Returns ErrNotInstalled when nothing is found.
func (d *Detector) Locate() (Invocation, error) {
	if d.binOverride != "" {
		return Invocation{Name: d.binOverride}, nil
	}

	if path, err := d.lookPath(OpenclawBinary); err == nil {
		return Invocation{Name: path}, nil
	}

	entrypoint, err := d.FindEntrypoint()
	if err != nil {
		return Invocation{}, err
	}
	if !d.HasNode() {
		return Invocation{}, ErrNotInstalled
	}
	return Invocation{Name: "node", Args: []string{entrypoint}}, nil
}

// FindEntrypoint searches the known global-install layouts for
// openclaw.mjs. Returns ErrNotInstalled when no layout matches.
func (d *Detector) FindEntrypoint() (string, error) {
	dir, err := d.FindPackageDir()
	if err != nil {
		return "", err
	}
	entrypoint := filepath.Join(dir, OpenclawBinary+".mjs")
	if _, err := os.Stat(entrypoint); err != nil {
		return "", ErrNotInstalled
	}
	return entrypoint, nil
}

// FindPackageDir locates the installed openclaw package directory (the one
// holding package.json), searching pnpm then npm global layouts.
func (d *Detector) FindPackageDir() (string, error) {
	home, err := d.home()
	if err != nil {
		return "", ErrNotInstalled
	}

	// pnpm content-addressed store: the package lives under a versioned
	// .pnpm directory entry.
	pnpmStore := filepath.Join(home, ".local/share/pnpm/global/5/.pnpm")
	if entries, err := os.ReadDir(pnpmStore); err == nil {
		for _, entry := range entries {
			if !strings.HasPrefix(entry.Name(), OpenclawBinary+"@") {
				continue
			}
			dir := filepath.Join(pnpmStore, entry.Name(), "node_modules", OpenclawBinary)
			if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
				return dir, nil
			}
		}
	}

	candidates := []string{
		// pnpm global, older layout.
		filepath.Join(home, ".local/share/pnpm/global/5/node_modules", OpenclawBinary),
		// npm global, system install.
		filepath.Join("/usr/lib/node_modules", OpenclawBinary),
		// npm global, user prefix.
		filepath.Join(home, ".npm-global/lib/node_modules", OpenclawBinary),
		// npm prefix pointed at the home directory.
		filepath.Join(home, "node_modules", OpenclawBinary),
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
			return dir, nil
		}
	}

	return "", ErrNotInstalled
}
