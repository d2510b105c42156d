// Package intern deduplicates token storage so that index keys and
// per-document postings reference one canonical copy of each token.
package intern

import "strings"

// Pool is a set-backed string cache. It is not safe for concurrent
// mutation; the index calls it only under its write discipline.
type Pool struct {
	strs map[string]string
}

func New() *Pool {
	return &Pool{strs: make(map[string]string)}
}

// Intern returns the canonical copy of s, storing an owned clone the first
// time s is seen. The clone detaches the token from the document text it
// was sliced from.
func (p *Pool) Intern(s string) string {
	if c, ok := p.strs[s]; ok {
		return c
	}
	c := strings.Clone(s)
	p.strs[c] = c
	return c
}

// Lookup returns the canonical copy without inserting.
func (p *Pool) Lookup(s string) (string, bool) {
	c, ok := p.strs[s]
	return c, ok
}

// Release drops s from the pool once no posting references it.
func (p *Pool) Release(s string) {
	delete(p.strs, s)
}

func (p *Pool) Len() int {
	return len(p.strs)
}
