package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("job not found")

// Mirror persists a snapshot of a job record after every store update.
// Implemented by storage.Local via StatusPath; failures are logged and
// swallowed because the in-memory store stays authoritative.
type Mirror interface {
	StatusPath(id string) string
}

// Store is the process-wide, thread-safe job map. It is the single source of
// truth for status queries; the on-disk status.json copies are best-effort.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	seq    map[string]uint64
	nextID uint64

	mirror Mirror
	limit  int
}

// NewStore creates a store bounded to limit records. When the cap is hit,
// the oldest terminal records are evicted; pending and processing jobs are
// never dropped. limit <= 0 means unbounded.
func NewStore(mirror Mirror, limit int) *Store {
	return &Store{
		jobs:   make(map[string]*Job),
		seq:    make(map[string]uint64),
		mirror: mirror,
		limit:  limit,
	}
}

// Create inserts a new record. Ids come from uuid generation so a collision
// indicates a caller bug, not a race to tolerate.
func (s *Store) Create(j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; ok {
		return fmt.Errorf("job %s already exists", j.ID)
	}

	s.nextID++
	s.jobs[j.ID] = j.Clone()
	s.seq[j.ID] = s.nextID
	s.evictLocked()

	s.writeMirror(s.jobs[j.ID])
	return nil
}

// Get returns a deep copy of the record, or ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

// List returns all records, newest first (createdAt descending, insertion
// order breaking ties).
func (s *Store) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return s.seq[out[a].ID] > s.seq[out[b].ID]
	})
	return out
}

// Update applies mutate to an existing record under the write lock and
// mirrors the new state to disk. It never creates a record: an unknown id is
// ErrNotFound, full stop.
func (s *Store) Update(id string, mutate func(*Job)) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	mutate(j)

	s.writeMirror(j)
	return j.Clone(), nil
}

// Len reports the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// evictLocked drops the oldest terminal records once the cap is exceeded.
// Callers hold the write lock.
func (s *Store) evictLocked() {
	if s.limit <= 0 || len(s.jobs) <= s.limit {
		return
	}

	type candidate struct {
		id  string
		seq uint64
	}
	var terminal []candidate
	for id, j := range s.jobs {
		if j.Status.Terminal() {
			terminal = append(terminal, candidate{id: id, seq: s.seq[id]})
		}
	}
	sort.Slice(terminal, func(a, b int) bool { return terminal[a].seq < terminal[b].seq })

	for _, c := range terminal {
		if len(s.jobs) <= s.limit {
			break
		}
		delete(s.jobs, c.id)
		delete(s.seq, c.id)
		log.Debug().Str("job_id", c.id).Msg("evicted terminal job from history")
	}
}

// writeMirror snapshots the record to its status.json. Best-effort only.
func (s *Store) writeMirror(j *Job) {
	if s.mirror == nil {
		return
	}
	path := s.mirror.StatusPath(j.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("status mirror dir")
		return
	}
	data, err := json.Marshal(j)
	if err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("status mirror encode")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("status mirror write")
	}
}
