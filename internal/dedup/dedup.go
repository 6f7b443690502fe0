// Package dedup tracks ids of papers that were already processed.
package dedup

import (
	"regexp"
)

// Store is the set of previously seen paper keys. It is not safe for
// concurrent use; a single ingestor owns it.
type Store interface {
	Contains(id string) bool
	Add(id string)
	// Flush persists the full set, replacing whatever was stored before.
	Flush() error
}

// KeyFunc maps a raw feed id to the key stored in a Store.
type KeyFunc func(id string) string

const (
	PolicyExact         = "exact"
	PolicyIgnoreVersion = "ignore_version"
)

// versionSuffix matches a version only when it follows an arXiv identifier,
// new style (2101.12345) or old style (hep-th/9901001).
var versionSuffix = regexp.MustCompile(`(\d{4}\.\d{4,5}|/\d{7})v\d+$`)

// ExactKey uses the feed id as is, so every new version of a paper is a new
// item.
func ExactKey(id string) string {
	return id
}

// IgnoreVersionKey drops a trailing arXiv version suffix such as "v2", so all
// versions of a paper share one key.
func IgnoreVersionKey(id string) string {
	return versionSuffix.ReplaceAllString(id, "$1")
}

// KeyFuncFor returns the KeyFunc for a configured policy name. Unknown names
// fall back to ExactKey.
func KeyFuncFor(policy string) KeyFunc {
	if policy == PolicyIgnoreVersion {
		return IgnoreVersionKey
	}
	return ExactKey
}

// MemoryStore keeps keys in memory only.
type MemoryStore struct {
	ids map[string]struct{}
}

func NewMemoryStore(ids ...string) *MemoryStore {
	s := &MemoryStore{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *MemoryStore) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *MemoryStore) Add(id string) {
	s.ids[id] = struct{}{}
}

func (s *MemoryStore) Flush() error {
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	return len(s.ids)
}
