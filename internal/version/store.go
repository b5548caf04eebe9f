package version

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/RevCBH/plangate/internal/store"
)

// Store persists versions for one task
type Store interface {
	// Load returns every stored version in ascending order
	Load() ([]*PlanVersion, error)
	Save(v *PlanVersion) error
	Delete(number int) error

	// Highest returns the largest number ever saved, deleted versions
	// included
	Highest() (int, error)
}

// MemoryStore keeps versions in memory
type MemoryStore struct {
	mu       sync.Mutex
	versions map[int]*PlanVersion
	highest  int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[int]*PlanVersion)}
}

func (m *MemoryStore) Load() ([]*PlanVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*PlanVersion, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, v.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemoryStore) Save(v *PlanVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[v.Number] = v.clone()
	m.highest = max(m.highest, v.Number)
	return nil
}

func (m *MemoryStore) Delete(number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.versions, number)
	return nil
}

func (m *MemoryStore) Highest() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highest, nil
}

var versionFile = regexp.MustCompile(`^v(\d+)\.yaml$`)

const indexFile = "index.yaml"

// index records the numbering high-water mark next to the version files
type index struct {
	Highest int `yaml:"highest"`
}

// FileStore writes one v{n}.yaml per version into a directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file store over dir, usually Store.VersionsDir(task)
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(number int) string {
	return filepath.Join(f.dir, "v"+strconv.Itoa(number)+".yaml")
}

func (f *FileStore) Load() ([]*PlanVersion, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read versions dir: %w", err)
	}

	var out []*PlanVersion
	for _, e := range entries {
		m := versionFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		var v PlanVersion
		if err := store.ReadYAML(filepath.Join(f.dir, e.Name()), &v); err != nil {
			return nil, err
		}
		// The file name is authoritative for the number
		v.Number, _ = strconv.Atoi(m[1])
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *FileStore) Save(v *PlanVersion) error {
	if err := store.WriteYAML(f.path(v.Number), v); err != nil {
		return err
	}
	highest, err := f.Highest()
	if err != nil {
		return err
	}
	if v.Number <= highest {
		return nil
	}
	return store.WriteYAML(filepath.Join(f.dir, indexFile), index{Highest: v.Number})
}

// Highest reads the index. A directory written before the index existed
// falls back to the largest version file.
func (f *FileStore) Highest() (int, error) {
	var idx index
	err := store.ReadYAML(filepath.Join(f.dir, indexFile), &idx)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("read version index: %w", err)
	}
	versions, err := f.Load()
	if err != nil {
		return 0, err
	}
	for _, v := range versions {
		idx.Highest = max(idx.Highest, v.Number)
	}
	return idx.Highest, nil
}

func (f *FileStore) Delete(number int) error {
	err := os.Remove(f.path(number))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete version %d: %w", number, err)
	}
	return nil
}
