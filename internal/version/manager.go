package version

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/RevCBH/plangate/internal/plan"
)

// Manager tracks the version history of one task's plan.
// It is safe for concurrent access.
type Manager struct {
	mu       sync.RWMutex
	taskID   string
	store    Store
	versions map[int]*PlanVersion
	// highest is the largest number ever issued; deleted numbers are not reused
	highest  int
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager loads any stored history for taskID
func NewManager(taskID string, s Store, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		taskID:   taskID,
		store:    s,
		versions: make(map[int]*PlanVersion),
		logger:   logger,
		now:      time.Now,
	}

	loaded, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("load versions for %s: %w", taskID, err)
	}
	for _, v := range loaded {
		m.versions[v.Number] = v
	}
	if m.highest, err = s.Highest(); err != nil {
		return nil, fmt.Errorf("load versions for %s: %w", taskID, err)
	}
	m.highest = max(m.highest, m.maxNumber())
	return m, nil
}

// TaskID returns the task this manager tracks
func (m *Manager) TaskID() string {
	return m.taskID
}

func (m *Manager) maxNumber() int {
	n := 0
	for k := range m.versions {
		if k > n {
			n = k
		}
	}
	return n
}

// Create snapshots p as the next version. The snapshot is a deep copy.
// Numbers are never reused, even after a delete.
func (m *Manager) Create(p *plan.Plan, reason, author string) (*PlanVersion, error) {
	if p == nil {
		return nil, fmt.Errorf("create version: nil plan")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.maxNumber()
	v := &PlanVersion{
		Number:    m.highest + 1,
		Plan:      p.Clone(),
		CreatedAt: m.now(),
		CreatedBy: author,
		Reason:    reason,
		Previous:  prev,
		Metadata: Metadata{
			TaskID:          m.taskID,
			FileCount:       p.FileCount(),
			DependencyCount: p.DependencyCount(),
		},
	}

	if err := m.store.Save(v); err != nil {
		return nil, fmt.Errorf("save version %d: %w", v.Number, err)
	}
	m.versions[v.Number] = v
	m.highest = v.Number

	m.logger.Debug("plan version created", "task", m.taskID, "version", v.Number, "reason", reason)
	return v.clone(), nil
}

// Get returns a copy of version n
func (m *Manager) Get(n int) (*PlanVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.versions[n]
	if !ok {
		return nil, fmt.Errorf("%w: v%d of %s", ErrNotFound, n, m.taskID)
	}
	return v.clone(), nil
}

// Latest returns a copy of the highest-numbered version
func (m *Manager) Latest() (*PlanVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.maxNumber()
	if n == 0 {
		return nil, fmt.Errorf("%w: %s has no versions", ErrNotFound, m.taskID)
	}
	return m.versions[n].clone(), nil
}

// History returns copies of all versions in ascending order
func (m *Manager) History() []*PlanVersion {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*PlanVersion, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, v.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Compare diffs version a against version b
func (m *Manager) Compare(a, b int) (Comparison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from, ok := m.versions[a]
	if !ok {
		return Comparison{}, fmt.Errorf("%w: v%d of %s", ErrNotFound, a, m.taskID)
	}
	to, ok := m.versions[b]
	if !ok {
		return Comparison{}, fmt.Errorf("%w: v%d of %s", ErrNotFound, b, m.taskID)
	}
	return compare(from, to), nil
}

// Delete removes version n. Version 1 cannot be deleted while later
// versions exist.
func (m *Manager) Delete(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.versions[n]; !ok {
		return fmt.Errorf("%w: v%d of %s", ErrNotFound, n, m.taskID)
	}
	if n == 1 && len(m.versions) > 1 {
		return fmt.Errorf("%w: v1 of %s has later versions", ErrProtectedVersion, m.taskID)
	}

	if err := m.store.Delete(n); err != nil {
		return err
	}
	delete(m.versions, n)
	return nil
}

// Rollback creates a new version whose plan is a copy of version n
func (m *Manager) Rollback(n int, author string) (*PlanVersion, error) {
	target, err := m.Get(n)
	if err != nil {
		return nil, err
	}
	return m.Create(target.Plan, fmt.Sprintf("Rollback to version %d", n), author)
}
