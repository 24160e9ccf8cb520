// Package testkit holds in-memory adapters and dataset fixtures. The CLI and
// API use the in-memory run store when no database is configured.
package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"randomnet/domain/core"
	"randomnet/domain/replicate"
)

// InMemoryRunRepository implements ports.RunRepository in process memory.
type InMemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*replicate.Run
}

// NewInMemoryRunRepository creates an empty store.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]*replicate.Run)}
}

// Save stores a copy of run, assigning an ID and timestamp when missing.
func (s *InMemoryRunRepository) Save(ctx context.Context, run *replicate.Run) error {
	if run.ID == "" {
		run.ID = core.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("%w: run %s already exists", core.ErrInvalidRequest, run.ID)
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Get returns a copy of the run with id.
func (s *InMemoryRunRepository) Get(ctx context.Context, id core.RunID) (*replicate.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return cloneRun(run), nil
}

// List returns up to limit runs, newest first.
func (s *InMemoryRunRepository) List(ctx context.Context, limit int) ([]*replicate.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*replicate.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, cloneRun(r))
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func cloneRun(r *replicate.Run) *replicate.Run {
	c := *r
	c.Replicates = append(replicate.Values(nil), r.Replicates...)
	if r.Observed != nil {
		v := *r.Observed
		c.Observed = &v
	}
	if r.PValue != nil {
		v := *r.PValue
		c.PValue = &v
	}
	return &c
}

// GameFixture describes a synthetic player/author dataset: every row says
// that a player (top) played a game by an author (bottom) of some genre.
type GameFixture struct {
	Players int
	Authors int
	Rows    int
	Genres  []string
	Seed    int64
}

// DefaultGameFixture is small enough for unit tests.
func DefaultGameFixture() GameFixture {
	return GameFixture{Players: 12, Authors: 6, Rows: 60, Genres: []string{"puzzle", "rpg", "shooter"}, Seed: 42}
}

// CSV renders the fixture with header permalink,author,genre. Each author
// has a fixed genre so modal categories are well defined.
func (f GameFixture) CSV() string {
	rng := rand.New(rand.NewSource(f.Seed))
	var b strings.Builder
	b.WriteString("permalink,author,genre\n")
	for i := 0; i < f.Rows; i++ {
		author := rng.Intn(f.Authors)
		fmt.Fprintf(&b, "player%d,author%d,%s\n",
			rng.Intn(f.Players), author, f.Genres[author%len(f.Genres)])
	}
	return b.String()
}

// WriteCSV writes the fixture into dir and returns the file path.
func (f GameFixture) WriteCSV(dir string) (string, error) {
	path := filepath.Join(dir, "games.csv")
	if err := os.WriteFile(path, []byte(f.CSV()), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
