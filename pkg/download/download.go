// pkg/download/download.go
// The download package detects completion of asynchronous browser downloads.
// Browsers expose no portable "download finished" event, so the detector works
// purely from observable side effects: directory listings, file sizes and the
// remote session's managed-download manifest. A file counts as complete only
// when two consecutive polls observe it with the same non-zero size.
package download

import "strings"

// Topology names where downloaded files become observable. It is fixed for
// the lifetime of a Detector instance.
type Topology string

const (
	// Local polls a directory on the machine running the tests.
	Local Topology = "local"
	// RemoteManaged polls the remote session's managed-download manifest and
	// fetches chosen files into the local destination before checking them.
	RemoteManaged Topology = "remote_managed"
	// RemoteMounted polls a host directory the remote browser's download
	// folder is mounted into. Observationally identical to Local.
	RemoteMounted Topology = "remote_mounted"
)

// CompletedFile is a download the detector observed as stable.
type CompletedFile struct {
	// Name is the bare file name.
	Name string
	// Path is the file's location in the destination directory.
	Path string
	// Size is the stable byte length.
	Size int64
}

// Pick selects which candidate the detector waits for. A nil *Pick means:
// the most recently completed eligible candidate, ties broken by
// lexicographic name order.
type Pick struct {
	name  string
	match func(string) bool
}

// Exact waits for a file with exactly this name.
func Exact(name string) *Pick { return &Pick{name: name} }

// Matching waits for the first eligible file whose name satisfies pred.
func Matching(pred func(string) bool) *Pick { return &Pick{match: pred} }

// String renders the pick for logs and errors.
func (p *Pick) String() string {
	switch {
	case p == nil:
		return "latest"
	case p.name != "":
		return "name=" + p.name
	default:
		return "predicate"
	}
}

// partialSuffixes are the platform-specific markers of an in-progress
// download. A name carrying one is never eligible for completion, regardless
// of its observed size.
var partialSuffixes = []string{".crdownload", ".part", ".partial", ".tmp", ".download"}

// eligible reports whether a file name may ever be returned as a completed
// download: not an in-progress marker and not hidden.
func eligible(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}
