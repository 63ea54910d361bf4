package sentiment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ComputeETag returns the weak validator for a stored result. The token is
// derived from the record id and the analysis timestamp truncated to whole
// seconds, so repeated reads of an unchanged row yield the same value and
// any update that touches analyzed_at produces a new one.
func ComputeETag(id uuid.UUID, analyzedAt time.Time) string {
	return fmt.Sprintf(`W/"%s-%d"`, id, analyzedAt.Unix())
}

// ETagMatch reports whether a client-supplied If-None-Match value matches
// the current validator. Comparison is exact; wildcard and list forms are
// not honored.
func ETagMatch(candidate, current string) bool {
	return candidate != "" && candidate == current
}
