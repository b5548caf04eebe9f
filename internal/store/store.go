package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RevCBH/plangate/internal/modify"
	"github.com/RevCBH/plangate/internal/plan"
)

// ErrPlanNotFound is returned when a task has no stored plan
var ErrPlanNotFound = errors.New("plan not found")

const (
	planFile     = "plan.yaml"
	metadataFile = "review.yaml"
	sessionsDir  = "sessions"
	qaDir        = "qa"
	versionsDir  = "versions"
)

// Store keeps plans and their review trail under a state directory:
//
//	<root>/<task>/plan.yaml
//	<root>/<task>/review.yaml
//	<root>/<task>/sessions/<id>.yaml
//	<root>/<task>/qa/<id>.yaml
//	<root>/<task>/versions/v<n>.yaml
type Store struct {
	root string
}

// New creates a store rooted at root. The directory is created lazily.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the state directory
func (s *Store) Root() string {
	return s.root
}

// TaskDir returns the directory holding everything stored for taskID
func (s *Store) TaskDir(taskID string) string {
	return filepath.Join(s.root, sanitize(taskID))
}

// VersionsDir returns the directory the version file store uses for taskID
func (s *Store) VersionsDir(taskID string) string {
	return filepath.Join(s.TaskDir(taskID), versionsDir)
}

// Load reads the stored plan for taskID
func (s *Store) Load(taskID string) (*plan.Plan, error) {
	var p plan.Plan
	err := ReadYAML(filepath.Join(s.TaskDir(taskID), planFile), &p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		p.TaskID = taskID
	}
	return &p, nil
}

// Save writes the plan and merges metadata into the task's review
// metadata. A nil value removes the key. It returns the plan's location.
func (s *Store) Save(taskID string, p *plan.Plan, metadata map[string]any) (string, error) {
	if p == nil {
		return "", fmt.Errorf("save %s: nil plan", taskID)
	}
	path := filepath.Join(s.TaskDir(taskID), planFile)
	if err := WriteYAML(path, p); err != nil {
		return "", err
	}

	if len(metadata) > 0 {
		existing, err := s.LoadMetadata(taskID)
		if err != nil {
			return "", err
		}
		for k, v := range metadata {
			if v == nil {
				delete(existing, k)
				continue
			}
			existing[k] = v
		}
		if err := WriteYAML(filepath.Join(s.TaskDir(taskID), metadataFile), existing); err != nil {
			return "", err
		}
	}

	return path, nil
}

// LoadMetadata reads the review metadata for taskID. A task without
// metadata yields an empty map.
func (s *Store) LoadMetadata(taskID string) (map[string]any, error) {
	meta := map[string]any{}
	err := ReadYAML(filepath.Join(s.TaskDir(taskID), metadataFile), &meta)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveSession records a finished modification session in the audit trail
func (s *Store) SaveSession(sess *modify.Session) (string, error) {
	path := filepath.Join(s.TaskDir(sess.TaskID), sessionsDir, sess.ID+".yaml")
	if err := WriteYAML(path, sess); err != nil {
		return "", err
	}
	return path, nil
}

// SaveQASession records a Q&A session in the audit trail
func (s *Store) SaveQASession(taskID, sessionID string, record any) (string, error) {
	path := filepath.Join(s.TaskDir(taskID), qaDir, sanitize(sessionID)+".yaml")
	if err := WriteYAML(path, record); err != nil {
		return "", err
	}
	return path, nil
}

// Sessions lists the ids of saved modification sessions, sorted
func (s *Store) Sessions(taskID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.TaskDir(taskID), sessionsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadYAML decodes the YAML file at path into v
func ReadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// WriteYAML encodes v to path atomically (write-to-temp + rename),
// creating parent directories as needed.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// sanitize keeps task ids from escaping the state directory
func sanitize(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, "\\", "_")
	if id == "" || id == "." || id == ".." {
		return "_"
	}
	return id
}
