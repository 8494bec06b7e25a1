// Package storage implements an in-memory file store with quota-tracked
// CRUD, version snapshots, tag search and usage analytics. All state lives
// behind a single guarded container; operations validate before they mutate,
// so a rejected call leaves the store untouched.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/juju/clock"
)

const (
	// DefaultMaxFileSize is the largest content accepted for a single file.
	DefaultMaxFileSize = 10 << 20 // 10 MiB
	// DefaultChunkSize is the block size content is sharded into.
	DefaultChunkSize = 1 << 20 // 1 MiB
	// DefaultMaxStorageSize is the capacity ceiling across all live files.
	DefaultMaxStorageSize = 1 << 30 // 1 GiB
)

type Options struct {
	MaxFileSize    int64
	MaxStorageSize int64
	ChunkSize      int
	Clock          clock.Clock
}

type Option func(*Options)

func WithMaxFileSize(n int64) Option {
	return func(o *Options) {
		o.MaxFileSize = n
	}
}

func WithMaxStorageSize(n int64) Option {
	return func(o *Options) {
		o.MaxStorageSize = n
	}
}

func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

// WithClock replaces the wall clock used for metadata timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// Store holds every live file, its chunk shards and the running usage
// counter. Writers take the lock exclusively for their whole duration, so no
// operation ever observes another's partial mutation.
type Store struct {
	mu sync.RWMutex

	files map[string]File
	// chunks is keyed by file name or version id. It is a derived, redundant
	// representation: reassembling a shard's blocks in order must reproduce
	// the bytes it was split from.
	chunks map[string][][]byte

	// usage is maintained incrementally on upload and delete, never
	// recomputed. It counts live files only, not version snapshots.
	usage          int64
	maxStorageSize int64
	maxFileSize    int64
	chunkSize      int

	clock      clock.Clock
	versionSeq uint64
}

// New returns an empty store. Production wiring uses the defaults; options
// exist so tests can build small independent instances.
func New(opts ...Option) *Store {
	o := Options{
		MaxFileSize:    DefaultMaxFileSize,
		MaxStorageSize: DefaultMaxStorageSize,
		ChunkSize:      DefaultChunkSize,
		Clock:          clock.WallClock,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		files:          make(map[string]File),
		chunks:         make(map[string][][]byte),
		maxStorageSize: o.MaxStorageSize,
		maxFileSize:    o.MaxFileSize,
		chunkSize:      o.ChunkSize,
		clock:          o.Clock,
	}
}

func (s *Store) now() int64 {
	return s.clock.Now().Unix()
}

// Upload stores content under name, building fresh metadata with both
// timestamps set to the current clock reading. Re-uploading an existing name
// overwrites it: the replaced content (and its version shards, which nothing
// references once the history resets) is released and the usage counter
// reflects only the new size.
//
// Returns ErrStorageLimit when content exceeds the per-file cap or the total
// capacity would be exceeded.
func (s *Store) Upload(name string, content []byte, fileType string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(content))
	if size > s.maxFileSize {
		return ErrStorageLimit
	}

	// An overwrite frees the replaced content before the new content counts
	// against capacity.
	projected := s.usage + size
	old, overwrite := s.files[name]
	if overwrite {
		projected -= old.Metadata.Size
	}
	if projected > s.maxStorageSize {
		return ErrStorageLimit
	}

	if overwrite {
		s.dropVersionShards(old.Metadata.VersionHistory)
	}

	now := s.now()
	owned := cloneBytes(content)
	s.files[name] = File{
		Name:    name,
		Content: owned,
		Metadata: FileMetadata{
			Name:            name,
			Size:            size,
			UploadTimestamp: now,
			LastModified:    now,
			FileType:        fileType,
			IsEncrypted:     false,
			VersionHistory:  []string{},
			Tags:            cloneStrings(tags),
		},
	}
	s.chunks[name] = splitChunks(owned, s.chunkSize)
	s.usage = projected
	return nil
}

// Download returns a deep copy of the stored file, content and metadata
// both. It has no side effects.
func (s *Store) Download(name string) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[name]
	if !ok {
		return File{}, ErrFileNotFound
	}
	return f.clone(), nil
}

// Delete removes the file, its chunk shard and every shard recorded in its
// version history, and decrements usage by the removed content length.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[name]
	if !ok {
		return ErrFileNotFound
	}
	delete(s.files, name)
	delete(s.chunks, name)
	s.dropVersionShards(f.Metadata.VersionHistory)
	s.usage -= f.Metadata.Size
	return nil
}

// UpdateMetadata refreshes the file's last-modified timestamp. A nil newTags
// means "not provided"; any non-nil slice, including an empty one, replaces
// the tag list wholesale. Content, size and usage are never touched.
func (s *Store) UpdateMetadata(name string, newTags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[name]
	if !ok {
		return ErrFileNotFound
	}
	if newTags != nil {
		f.Metadata.Tags = cloneStrings(newTags)
	}
	f.Metadata.LastModified = s.now()
	s.files[name] = f
	return nil
}

// CreateVersion records a snapshot of the supplied content as a chunk shard
// under a fresh version id and appends the id to the file's version history.
// The file's primary content, size and the usage counter stay untouched:
// this is a side shard, not a promotion to current content.
func (s *Store) CreateVersion(name string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[name]
	if !ok {
		return "", ErrFileNotFound
	}

	// The sequence keeps ids unique when two snapshots land within the same
	// clock second.
	s.versionSeq++
	versionID := fmt.Sprintf("%s_%d_%d", name, s.now(), s.versionSeq)

	f.Metadata.VersionHistory = append(f.Metadata.VersionHistory, versionID)
	s.files[name] = f
	s.chunks[versionID] = splitChunks(content, s.chunkSize)
	return versionID, nil
}

// SearchByTags returns a copy of every file whose tag set contains all query
// tags. Order and duplicates in the query are irrelevant; an empty query
// matches every file. Results are sorted by name.
func (s *Store) SearchByTags(tags []string) []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]File, 0)
	for _, f := range s.files {
		if containsAll(f.Metadata.Tags, tags) {
			matches = append(matches, f.clone())
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Name < matches[j].Name
	})
	return matches
}

// Analytics reports the current usage counter, the capacity ceiling and the
// number of live files.
type Analytics struct {
	Usage     int64 `json:"storage_usage"`
	Capacity  int64 `json:"max_storage_size"`
	FileCount int   `json:"file_count"`
}

func (s *Store) Analytics() Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Analytics{
		Usage:     s.usage,
		Capacity:  s.maxStorageSize,
		FileCount: len(s.files),
	}
}

// TypeDistribution groups live files by their file_type string and counts
// occurrences. The returned map is fresh on every call.
func (s *Store) TypeDistribution() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dist := make(map[string]int, len(s.files))
	for _, f := range s.files {
		dist[f.Metadata.FileType]++
	}
	return dist
}

// dropVersionShards releases the chunk shards recorded in a version history.
// Callers must hold the write lock.
func (s *Store) dropVersionShards(history []string) {
	for _, id := range history {
		delete(s.chunks, id)
	}
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
