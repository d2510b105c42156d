// Package dedup detects documents whose distinct-token sets are identical.
// Term frequencies and word order are ignored; only the set matters.
package dedup

import (
	"log/slog"
	"strings"
)

// keySep joins sorted tokens into a map key. Tokens never contain control
// characters, so the separator cannot collide with token bytes.
const keySep = "\x00"

// Source is the read-only view of the index the detector needs.
type Source interface {
	DocumentIDs() []int
	Terms(id int) []string
}

// Remover deletes a document by id.
type Remover interface {
	RemoveDocument(id int) bool
}

// FindDuplicateIDs returns, in ascending order, every id whose token set
// equals that of a lower id.
func FindDuplicateIDs(src Source) []int {
	seen := make(map[string]int)
	var dups []int
	for _, id := range src.DocumentIDs() {
		key := strings.Join(src.Terms(id), keySep)
		if _, ok := seen[key]; ok {
			dups = append(dups, id)
			continue
		}
		seen[key] = id
	}
	return dups
}

// RemoveDuplicates finds and removes duplicates, returning the removed ids.
func RemoveDuplicates(src Source, rm Remover) []int {
	logger := slog.Default().With("component", "dedup")
	dups := FindDuplicateIDs(src)
	for _, id := range dups {
		logger.Info("found duplicate document", "doc_id", id)
		rm.RemoveDocument(id)
	}
	return dups
}
