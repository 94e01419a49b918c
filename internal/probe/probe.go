// Package probe resolves the version pair every cache decision is keyed on:
// chitin's own version and the installed openclaw's version.
//
// The chitin version is a build-time constant and never fails. The openclaw
// version is read from the installed package's manifest, a plain file read
// that keeps cache hits subprocess-free, with a one-shot `openclaw --version`
// subprocess as the fallback when no manifest can be located.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/peakxl/chitin/internal/cache"
	"github.com/peakxl/chitin/internal/delegate"
	"github.com/peakxl/chitin/internal/logging"
	"github.com/peakxl/chitin/internal/nodejs"
)

// ErrUnavailable indicates the openclaw version could not be determined.
// Callers treat it as a routing decision (the cache cannot be trusted, so
// delegate), never as a fatal error.
var ErrUnavailable = errors.New("openclaw version unavailable")

// Probe resolves versions once per invocation; the result is reused by both
// the cache policy and any cache write.
type Probe struct {
	chitinVersion string
	detector      *nodejs.Detector
	runner        delegate.Runner
}

// New returns a Probe. chitinVersion is the build-injected shim version.
func New(chitinVersion string, detector *nodejs.Detector, runner delegate.Runner) *Probe {
	return &Probe{chitinVersion: chitinVersion, detector: detector, runner: runner}
}

// ChitinVersion returns the shim's own version. Always available.
func (p *Probe) ChitinVersion() string {
	return p.chitinVersion
}

// Versions resolves the full version pair. The error, when non-nil, wraps
// ErrUnavailable.
func (p *Probe) Versions(ctx context.Context) (cache.Versions, error) {
	openclaw, err := p.OpenclawVersion(ctx)
	if err != nil {
		return cache.Versions{Chitin: p.chitinVersion}, err
	}
	return cache.Versions{Chitin: p.chitinVersion, Openclaw: openclaw}, nil
}

// OpenclawVersion determines the installed openclaw version.
func (p *Probe) OpenclawVersion(ctx context.Context) (string, error) {
	if v, err := p.fromManifest(); err == nil {
		return v, nil
	}

	v, err := p.fromSubprocess(ctx)
	if err != nil {
		logging.FromContext(ctx).Debug().
			Str("component", "probe").
			Err(err).
			Msg("openclaw version probe failed")
		return "", errors.Join(ErrUnavailable, err)
	}
	return v, nil
}

// fromManifest reads the version from the installed package's package.json.
func (p *Probe) fromManifest() (string, error) {
	dir, err := p.detector.FindPackageDir()
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", err
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return "", err
	}
	return normalize(manifest.Version)
}

// fromSubprocess runs `openclaw --version` and scans its output for a
// semver token.
func (p *Probe) fromSubprocess(ctx context.Context) (string, error) {
	inv, err := p.detector.Locate()
	if err != nil {
		return "", err
	}

	name, args := inv.Command("--version")
	res, err := p.runner.Capture(ctx, name, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", errors.New("openclaw --version exited " + strings.TrimSpace(string(res.Stderr)))
	}

	for _, field := range strings.Fields(string(res.Stdout)) {
		if v, err := normalize(field); err == nil {
			return v, nil
		}
	}
	return "", errors.New("no version in openclaw --version output")
}

// normalize validates s as semver and returns its canonical form, so
// "v2026.2.1" and "2026.2.1" compare equal in the cache.
func normalize(s string) (string, error) {
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
