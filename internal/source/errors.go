package source

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSource is matched by every MalformedSourceError.
var ErrMalformedSource = errors.New("malformed source")

// MalformedSourceError reports a source whose header lacks required columns.
type MalformedSourceError struct {
	Source  string // "draft" or "combine"
	Path    string
	Missing []string
}

func (e *MalformedSourceError) Error() string {
	if e == nil {
		return ErrMalformedSource.Error()
	}
	where := e.Source
	if e.Path != "" {
		where = fmt.Sprintf("%s (%s)", e.Source, e.Path)
	}
	return fmt.Sprintf("malformed %s source: missing required columns: %s", where, strings.Join(e.Missing, ", "))
}

// Is implements errors.Is support.
func (e *MalformedSourceError) Is(target error) bool { return target == ErrMalformedSource }
