// Package production provides production integrations: persistence, event
// publishing, visualization. Adapted from the teacher's JSON/YAML
// persistence (internal/production/persister.go); MachineSnapshot is
// replaced by internal/snapshot.Session (see DESIGN.md).
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	model "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/snapshot"
	"gopkg.in/yaml.v3"
)

// Validate checks a restored snapshot against the document it's about to be
// bound to: every active state id and every history recording must name a
// real state in doc, and every history-holding state must itself be a
// history pseudo-state. A snapshot captured against a different or since-
// edited document fails fast here instead of producing a confusing panic or
// silently-empty configuration deep inside Session.Restore.
func Validate(doc *model.Document, snap snapshot.Session) error {
	if doc == nil {
		return fmt.Errorf("validate snapshot %q: nil document", snap.SessionID)
	}
	var unknown []string
	for _, id := range snap.ActiveStateIDs {
		if _, ok := doc.ByID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	for historyID, recorded := range snap.History {
		h, ok := doc.ByID[historyID]
		if !ok {
			unknown = append(unknown, historyID)
			continue
		}
		if !h.IsHistory() {
			return fmt.Errorf("validate snapshot %q: state %q has a history recording but is not a history pseudo-state", snap.SessionID, historyID)
		}
		for _, id := range recorded {
			if _, ok := doc.ByID[id]; !ok {
				unknown = append(unknown, id)
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("validate snapshot %q: unknown state ids %v (snapshot doesn't match document %q)", snap.SessionID, unknown, doc.Name)
}

// JSONPersister is a stdlib-only file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snap snapshot.Session) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snap.SessionID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONPersister) Load(ctx context.Context, sessionID string) (snapshot.Session, error) {
	fn := filepath.Join(p.dir, sessionID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Session{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return snapshot.Session{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snap snapshot.Session
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot.Session{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snap.SessionID = sessionID
	return snap, nil
}

// YAMLPersister is a file-based persister using YAML serialization for SessionSnapshot.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snap snapshot.Session) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snap.SessionID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLPersister) Load(ctx context.Context, sessionID string) (snapshot.Session, error) {
	fn := filepath.Join(p.dir, sessionID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Session{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return snapshot.Session{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snap snapshot.Session
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return snapshot.Session{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snap.SessionID = sessionID
	return snap, nil
}
