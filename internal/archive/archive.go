// Package archive stores raw listing snapshots so a cycle's input can be
// replayed or inspected after the fact.
package archive

import "context"

// Noop discards snapshots. Used when archival is disabled.
type Noop struct{}

// PutObject does nothing and returns an empty URI.
func (Noop) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
