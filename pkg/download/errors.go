// pkg/download/errors.go
package download

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// TimeoutError is the detector's only fatal error: no stable candidate
// emerged before the deadline. There is no partial-success return.
type TimeoutError struct {
	Topology Topology
	Pick     *Pick
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for download (%s topology, pick %s)",
		e.Timeout, e.Topology, e.Pick)
}

// isAlreadyExists recognizes the "file already exists" condition a re-fetch
// of an already-transferred remote file produces. It is treated as success,
// never as an error.
func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrExist) || os.IsExist(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
