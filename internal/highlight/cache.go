package highlight

import (
	"strconv"
	"sync"
	"time"
)

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619

	// DefaultCapacity is used when New is given a non-positive capacity.
	DefaultCapacity = 50
)

// Token is a run of text with a chroma token class such as "Keyword" or
// "LiteralString".
type Token struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// TokenLine is the tokens of a single source line.
type TokenLine []Token

// Tokenizer turns file content into one TokenLine per source line.
type Tokenizer func(path, content string) []TokenLine

type cacheKey struct {
	path        string
	fingerprint string
}

type entry struct {
	content    string
	lines      []TokenLine
	lastAccess time.Time
	seq        uint64
}

// Cache is a capacity-bounded map from (path, content fingerprint) to
// tokenized lines. It is safe for concurrent use; tokenization happens while
// the lock is held so the same content is never tokenized twice.
type Cache struct {
	mu       sync.Mutex
	capacity int
	tokenize Tokenizer
	now      func() time.Time
	seq      uint64
	entries  map[cacheKey]*entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for access timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache holding at most capacity entries.
func New(capacity int, tokenize Tokenizer, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity: capacity,
		tokenize: tokenize,
		now:      time.Now,
		entries:  make(map[cacheKey]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the tokenized lines for content, tokenizing and inserting them
// on a miss. A hit refreshes the entry's access time. Entries keep their
// content, so a fingerprint collision is re-tokenized instead of served.
func (c *Cache) Get(path, content string) []TokenLine {
	key := cacheKey{path: path, fingerprint: Fingerprint(content)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if e.content != content {
			e.content = content
			e.lines = c.tokenize(path, content)
		}
		c.touch(e)
		return e.lines
	}

	lines := c.tokenize(path, content)
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	e := &entry{content: content, lines: lines}
	c.touch(e)
	c.entries[key] = e
	return lines
}

// touch stamps e with the current time and the next access sequence number.
// The sequence orders accesses that share a timestamp on coarse clocks.
func (c *Cache) touch(e *entry) {
	c.seq++
	e.lastAccess, e.seq = c.now(), c.seq
}

// evictOldest removes the single least recently accessed entry, found by a
// full scan.
func (c *Cache) evictOldest() {
	var (
		oldestKey cacheKey
		oldest    *entry
	)
	for k, e := range c.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) ||
			(e.lastAccess.Equal(oldest.lastAccess) && e.seq < oldest.seq) {
			oldestKey, oldest = k, e
		}
	}
	if oldest != nil {
		delete(c.entries, oldestKey)
	}
}

// Contains reports whether content for path is cached, without touching its
// access time.
func (c *Cache) Contains(path, content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{path: path, fingerprint: Fingerprint(content)}]
	return ok && e.content == content
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*entry)
}

// Fingerprint is a 32-bit FNV-1a hash over the code points of s, in base 36.
// It is a cache key, not an integrity check: collisions are possible.
func Fingerprint(s string) string {
	var h uint32 = fnvOffset32
	for _, r := range s {
		h ^= uint32(r)
		h *= fnvPrime32
	}
	return strconv.FormatUint(uint64(h), 36)
}
