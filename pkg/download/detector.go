// pkg/download/detector.go
package download

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/uitest-io/uitest/pkg/driver"
)

// Detector awaits completion of one download at a time. It owns its
// destination directory for the duration of an AwaitCompletion call; callers
// must not trigger a second concurrent download against the same destination.
// Polls within one invocation are strictly sequential, so the previously
// observed size always comes from the immediately preceding iteration.
type Detector struct {
	logger   *zap.Logger
	fs       afero.Fs
	dir      string
	topology Topology
	remote   driver.RemoteFiles
	timeout  time.Duration
	poll     time.Duration
}

// Options configures a Detector.
type Options struct {
	// Topology selects the observable file source. Required.
	Topology Topology
	// Dir is the local destination directory. Required. When tests run in
	// parallel workers this is expected to be namespaced per worker by the
	// caller.
	Dir string
	// Remote is the managed-download capability. Required for RemoteManaged,
	// ignored otherwise.
	Remote driver.RemoteFiles
	// Timeout bounds one AwaitCompletion call. Defaults to 45s.
	Timeout time.Duration
	// Poll is the interval between observations. Defaults to 300ms.
	Poll time.Duration
}

// New builds a detector over the given filesystem.
func New(logger *zap.Logger, fsys afero.Fs, opts Options) (*Detector, error) {
	switch opts.Topology {
	case Local, RemoteMounted:
	case RemoteManaged:
		if opts.Remote == nil {
			return nil, fmt.Errorf("topology %s requires a remote files capability", RemoteManaged)
		}
	default:
		return nil, fmt.Errorf("unknown download topology %q", opts.Topology)
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("destination directory is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.Poll <= 0 {
		opts.Poll = 300 * time.Millisecond
	}
	return &Detector{
		logger:   logger.Named("download"),
		fs:       fsys,
		dir:      opts.Dir,
		topology: opts.Topology,
		remote:   opts.Remote,
		timeout:  opts.Timeout,
		poll:     opts.Poll,
	}, nil
}

// Dir returns the destination directory the detector observes.
func (d *Detector) Dir() string { return d.dir }

// Prepare clears the destination before a download is triggered. A failure to
// prepare the local directory is fatal: a foreign leftover file would corrupt
// the stability check. Clearing the remote manifest is best-effort only.
func (d *Detector) Prepare(ctx context.Context) error {
	if err := d.clearDir(); err != nil {
		return fmt.Errorf("prepare download dir %q: %w", d.dir, err)
	}
	if d.topology == RemoteManaged {
		if err := d.remote.ClearDownloadableFiles(ctx); err != nil {
			d.logger.Warn("failed to clear remote download manifest; continuing",
				zap.Error(err))
		}
	}
	return nil
}

func (d *Detector) clearDir() error {
	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	entries, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := d.fs.RemoveAll(filepath.Join(d.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// observation is the per-invocation bookkeeping behind the stability rule.
type observation struct {
	lastName string
	lastSize int64
	fetched  map[string]bool
}

// note records this poll's chosen candidate and reports whether it completes
// the stability pair: same name as the previous poll with an identical
// non-zero size. A change of chosen name resets the pairing.
func (o *observation) note(name string, size int64) bool {
	stable := name == o.lastName && size == o.lastSize && size > 0
	o.lastName, o.lastSize = name, size
	return stable
}

// AwaitCompletion polls the topology's file source until a candidate
// satisfies the stability rule or the deadline elapses. pick may be nil (take
// the most recently completed eligible candidate). Any error during a single
// poll iteration is logged and treated as a transient miss; only deadline
// expiry is fatal.
func (d *Detector) AwaitCompletion(ctx context.Context, pick *Pick) (CompletedFile, error) {
	start := time.Now()
	obs := &observation{fetched: map[string]bool{}}

	for {
		cf, done, err := d.pollOnce(ctx, obs, pick)
		if err != nil {
			d.logger.Debug("download poll failed; retrying", zap.Error(err))
		}
		if done {
			d.logger.Info("download complete",
				zap.String("file", cf.Name),
				zap.Int64("bytes", cf.Size),
				zap.Duration("after", time.Since(start)))
			return cf, nil
		}

		if time.Since(start) >= d.timeout {
			d.logger.Warn("download wait timed out",
				zap.String("topology", string(d.topology)),
				zap.Stringer("pick", pick),
				zap.Duration("timeout", d.timeout))
			return CompletedFile{}, &TimeoutError{Topology: d.topology, Pick: pick, Timeout: d.timeout}
		}
		if err := sleep(ctx, d.poll); err != nil {
			return CompletedFile{}, err
		}
	}
}

func (d *Detector) pollOnce(ctx context.Context, obs *observation, pick *Pick) (CompletedFile, bool, error) {
	if d.topology == RemoteManaged {
		return d.pollRemote(ctx, obs, pick)
	}
	return d.pollDir(obs, pick)
}

// pollDir observes the destination directory directly (Local and
// RemoteMounted topologies).
func (d *Detector) pollDir(obs *observation, pick *Pick) (CompletedFile, bool, error) {
	entries, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return CompletedFile{}, false, err
	}

	candidates := make([]fs.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !eligible(entry.Name()) {
			continue
		}
		if pick != nil {
			if pick.name != "" && entry.Name() != pick.name {
				continue
			}
			if pick.match != nil && !pick.match(entry.Name()) {
				continue
			}
		}
		candidates = append(candidates, entry)
	}
	if len(candidates) == 0 {
		return CompletedFile{}, false, nil
	}

	// Most recent first; lexicographic name order breaks modtime ties.
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ModTime().Equal(candidates[j].ModTime()) {
			return candidates[i].ModTime().After(candidates[j].ModTime())
		}
		return candidates[i].Name() < candidates[j].Name()
	})
	chosen := candidates[0]

	if obs.note(chosen.Name(), chosen.Size()) {
		return CompletedFile{
			Name: chosen.Name(),
			Path: filepath.Join(d.dir, chosen.Name()),
			Size: chosen.Size(),
		}, true, nil
	}
	return CompletedFile{}, false, nil
}

// pollRemote observes the remote session's managed-download manifest, fetches
// the chosen name into the destination once, then applies the stability rule
// to the local copy.
func (d *Detector) pollRemote(ctx context.Context, obs *observation, pick *Pick) (CompletedFile, bool, error) {
	names, err := d.remote.ListDownloadableNames(ctx)
	if err != nil {
		return CompletedFile{}, false, err
	}

	chosen := chooseRemote(names, pick)
	if chosen == "" {
		return CompletedFile{}, false, nil
	}

	// Fetch exactly once per chosen name. A re-fetch reporting "already
	// exists" means an earlier poll transferred it; that is success.
	if !obs.fetched[chosen] {
		if err := d.remote.Fetch(ctx, chosen, d.dir); err != nil && !isAlreadyExists(err) {
			return CompletedFile{}, false, fmt.Errorf("fetch %q: %w", chosen, err)
		}
		obs.fetched[chosen] = true
	}

	local := filepath.Join(d.dir, chosen)
	fi, err := d.fs.Stat(local)
	if err != nil {
		return CompletedFile{}, false, err
	}

	if obs.note(chosen, fi.Size()) {
		return CompletedFile{Name: chosen, Path: local, Size: fi.Size()}, true, nil
	}
	return CompletedFile{}, false, nil
}

// chooseRemote applies the remote selection order: exact name if the pick
// specifies one (skip the poll when absent), else the first name satisfying
// the predicate, else the lexicographically-last eligible name.
func chooseRemote(names []string, pick *Pick) string {
	if pick != nil && pick.name != "" {
		for _, n := range names {
			if n == pick.name && eligible(n) {
				return n
			}
		}
		return ""
	}

	if pick != nil && pick.match != nil {
		for _, n := range names {
			if eligible(n) && pick.match(n) {
				return n
			}
		}
		return ""
	}

	last := ""
	for _, n := range names {
		if eligible(n) && n > last {
			last = n
		}
	}
	return last
}

// sleep blocks for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
