package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/peakxl/chitin/internal/cache"
	"github.com/peakxl/chitin/internal/classify"
	"github.com/peakxl/chitin/internal/config"
	"github.com/peakxl/chitin/internal/delegate"
	"github.com/peakxl/chitin/internal/installer"
	"github.com/peakxl/chitin/internal/logging"
	"github.com/peakxl/chitin/internal/nodejs"
	"github.com/peakxl/chitin/internal/probe"
	"github.com/peakxl/chitin/internal/rebrand"
)

// ExitSpawnFailure is returned when openclaw itself cannot be executed.
// Distinct from any exit code openclaw would legitimately produce, so
// callers can tell "the wrapped command failed" from "the shim could not
// run the wrapped command".
const ExitSpawnFailure = 127

// unknownVersion is stamped into rebranded banners when the openclaw
// version could not be probed.
const unknownVersion = "unknown"

// Dispatcher routes one invocation: cacheable requests are answered from
// the help cache when possible, everything else is delegated to openclaw
// with full pass-through.
type Dispatcher struct {
	version  string
	cfg      *config.Config
	runner   delegate.Runner
	detector *nodejs.Detector

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// install runs the first-run setup; injectable for tests.
	install func(ctx context.Context) error

	// now is the clock used for cache decisions and writes.
	now func() time.Time
}

// NewDispatcher wires a Dispatcher from its collaborators.
func NewDispatcher(
	version string,
	cfg *config.Config,
	runner delegate.Runner,
	in io.Reader,
	out, errOut io.Writer,
) *Dispatcher {
	detector := nodejs.NewDetector(cfg.Runtime.OpenclawBin)
	d := &Dispatcher{
		version:  version,
		cfg:      cfg,
		runner:   runner,
		detector: detector,
		in:       in,
		out:      out,
		errOut:   errOut,
		now:      time.Now,
	}
	d.install = func(ctx context.Context) error {
		return installer.New(detector, runner, in, out).Run(ctx)
	}
	return d
}

// Handle classifies argv and executes the invocation, returning the process
// exit code.
func (d *Dispatcher) Handle(ctx context.Context, argv []string) int {
	req := classify.Classify(argv)

	logging.FromContext(ctx).Debug().
		Str("component", "dispatch").
		Bool("cacheable", req.Cacheable).
		Str("path", req.Path).
		Msg("classified invocation")

	if !req.Cacheable {
		return d.delegatePath(ctx, argv)
	}
	return d.cacheablePath(ctx, req)
}

// delegatePath is the unconditional pass-through: original argument vector,
// inherited stdio, child's exit code.
func (d *Dispatcher) delegatePath(ctx context.Context, argv []string) int {
	inv, ok := d.locate(ctx)
	if !ok {
		return ExitSpawnFailure
	}

	res, err := delegate.New(d.runner, inv).Run(ctx, argv, false)
	if err != nil {
		return d.reportSpawnFailure(err)
	}
	return res.ExitCode
}

// cacheablePath answers a help/version request: cache hit when the policy
// allows, fresh capture (plus a best-effort cache write) otherwise.
func (d *Dispatcher) cacheablePath(ctx context.Context, req classify.Request) int {
	log := logging.FromContext(ctx)

	versions, probeErr := d.probeVersions(ctx)

	// Root --version is composed locally from the probe; no capture and no
	// subprocess on any path.
	if req.Kind == classify.KindVersion && req.Path == "" {
		d.printVersion(versions, probeErr)
		return 0
	}

	store := d.loadStore(ctx)

	if probeErr == nil && store != nil {
		var entry *cache.Entry
		if e, ok := store.Get(req.Key()); ok {
			entry = &e
		}

		decision := cache.Decide(versions, entry, d.now(), d.cfg.CacheTTL())
		log.Debug().
			Str("component", "dispatch").
			Str("key", req.Key()).
			Stringer("decision", decision).
			Msg("cache policy decided")

		if decision == cache.Hit {
			fmt.Fprint(d.out, entry.Content)
			return 0
		}
	}

	return d.captureAndStore(ctx, req, store, versions, probeErr == nil)
}

// captureAndStore delegates the normalized help/version request with output
// capture, rebrands, echoes, and stores the result when it is trustworthy.
func (d *Dispatcher) captureAndStore(
	ctx context.Context,
	req classify.Request,
	store *cache.Store,
	versions cache.Versions,
	versionsKnown bool,
) int {
	inv, ok := d.locate(ctx)
	if !ok {
		return ExitSpawnFailure
	}

	res, err := delegate.New(d.runner, inv).Run(ctx, req.CaptureArgs(), true)
	if err != nil {
		return d.reportSpawnFailure(err)
	}

	openclawVersion := versions.Openclaw
	if !versionsKnown {
		openclawVersion = unknownVersion
	}
	rebrander := rebrand.New(d.version, openclawVersion)

	content := rebrander.Apply(string(res.Stdout))
	fmt.Fprint(d.out, content)
	if len(res.Stderr) > 0 {
		fmt.Fprint(d.errOut, rebrander.Apply(string(res.Stderr)))
	}

	// A failed or empty capture is never cached, and an unknown version
	// pair would poison later lookups.
	if store != nil && versionsKnown && res.ExitCode == 0 && content != "" {
		entry := cache.Entry{
			Content:         content,
			ChitinVersion:   versions.Chitin,
			OpenclawVersion: versions.Openclaw,
			CreatedAt:       d.now(),
		}
		if putErr := store.Put(req.Key(), entry); putErr != nil {
			logging.FromContext(ctx).Warn().
				Str("component", "dispatch").
				Str("path", store.Path()).
				Err(putErr).
				Msg("cache write failed, continuing without caching")
		}
	}

	return res.ExitCode
}

// probeVersions resolves the version pair once per invocation.
func (d *Dispatcher) probeVersions(ctx context.Context) (cache.Versions, error) {
	p := probe.New(d.version, d.detector, d.runner)
	versions, err := p.Versions(ctx)
	if err != nil {
		logging.FromContext(ctx).Debug().
			Str("component", "dispatch").
			Err(err).
			Msg("version probe unavailable, cache bypassed")
	}
	return versions, err
}

// loadStore opens the cache, or returns nil when caching is disabled or no
// cache directory can be resolved.
func (d *Dispatcher) loadStore(ctx context.Context) *cache.Store {
	if !d.cfg.Cache.Enabled {
		return nil
	}
	dir, err := d.cfg.CacheDir()
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "dispatch").
			Err(err).
			Msg("no cache directory, caching disabled for this run")
		return nil
	}
	return cache.Load(ctx, filepath.Join(dir, cache.FileName))
}

// locate resolves the openclaw invocation, running the installer flow when
// nothing is installed. ok is false when openclaw remains unavailable; the
// failure has already been reported.
func (d *Dispatcher) locate(ctx context.Context) (nodejs.Invocation, bool) {
	inv, err := d.detector.Locate()
	if err == nil {
		return inv, true
	}
	if !errors.Is(err, nodejs.ErrNotInstalled) {
		d.reportSpawnFailure(&delegate.SpawnError{Name: nodejs.OpenclawBinary, Err: err})
		return nodejs.Invocation{}, false
	}

	if installErr := d.install(ctx); installErr != nil {
		fmt.Fprintf(d.errOut, "chitin: %v\n", installErr)
		return nodejs.Invocation{}, false
	}

	// Retry once after a successful install.
	inv, err = d.detector.Locate()
	if err != nil {
		d.reportSpawnFailure(&delegate.SpawnError{Name: nodejs.OpenclawBinary, Err: err})
		return nodejs.Invocation{}, false
	}
	return inv, true
}

// reportSpawnFailure prints the shim-authored failure message. Always
// returns ExitSpawnFailure so call sites can return it directly.
func (d *Dispatcher) reportSpawnFailure(err error) int {
	fmt.Fprintf(d.errOut, "chitin: %v\n", err)
	fmt.Fprintln(d.errOut, "Run 'chitin' with no arguments to set up openclaw, or check your PATH.")
	return ExitSpawnFailure
}

// printVersion writes the composed version banner.
func (d *Dispatcher) printVersion(versions cache.Versions, probeErr error) {
	openclaw := versions.Openclaw
	if probeErr != nil {
		openclaw = "not installed"
	}
	fmt.Fprintf(d.out, "chitin %s (openclaw %s)\n", d.version, openclaw)
}
