package ingest

import "github.com/potomac-labs/actions-ingest/internal/actions"

// Partition splits candidates into unseen documents and already-known ones.
// A candidate is known when either its URL or its identifier has been
// persisted before. Duplicates inside the same batch collapse to the first
// occurrence.
func Partition(candidates []actions.Document, known actions.KeySet) (fresh, existing []actions.Document) {
	seenURLs := make(map[string]struct{}, len(candidates))
	seenIDs := make(map[string]struct{}, len(candidates))

	for _, doc := range candidates {
		if known.Contains(doc) {
			existing = append(existing, doc)
			continue
		}
		if _, dup := seenURLs[doc.URL]; dup {
			existing = append(existing, doc)
			continue
		}
		if _, dup := seenIDs[doc.Identifier]; dup {
			existing = append(existing, doc)
			continue
		}
		seenURLs[doc.URL] = struct{}{}
		seenIDs[doc.Identifier] = struct{}{}
		doc.IsNew = true
		fresh = append(fresh, doc)
	}
	return fresh, existing
}
