package targets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/webrequest/internal/listfile"
	"github.com/samvad-hq/webrequest/pkg/webrequest"
)

// Package targets loads the list of URLs the poller fetches (YAML/JSON).

const (
	// ModeJSON delivers the body or a result sentinel to the runner.
	ModeJSON = "json"
	// ModeLog writes the outcome, including the body, to the log only.
	ModeLog = "log"
)

type Target struct {
	ID     string         `json:"id" yaml:"id"`
	URL    string         `json:"url" yaml:"url"`
	Mode   string         `json:"mode" yaml:"mode"`
	Config map[string]any `json:"config" yaml:"config"`
}

// Registry is an immutable set of validated targets.
type Registry struct {
	targets []Target
	idx     map[string]Target
}

// LoadRegistry loads targets from a YAML/JSON file or a bare JSON array.
func LoadRegistry(path string) (*Registry, error) {
	list, err := listfile.Read[Target](path, "targets")
	if err != nil {
		return nil, err
	}
	return NewRegistry(list)
}

// NewRegistry sanitizes and validates list.
func NewRegistry(list []Target) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("targets file contains no targets entries")
	}

	reg := &Registry{
		targets: make([]Target, len(list)),
		idx:     make(map[string]Target, len(list)),
	}
	for i := range list {
		t := sanitizeTarget(list[i])
		if err := validateTarget(t); err != nil {
			return nil, fmt.Errorf("target[%d]: %w", i, err)
		}
		if _, exists := reg.idx[t.ID]; exists {
			return nil, fmt.Errorf("duplicate target id %q", t.ID)
		}
		reg.targets[i] = t
		reg.idx[t.ID] = t
	}
	return reg, nil
}

func sanitizeTarget(t Target) Target {
	t.ID = strings.TrimSpace(t.ID)
	t.URL = strings.TrimSpace(t.URL)
	t.Mode = strings.ToLower(strings.TrimSpace(t.Mode))

	if t.Mode == "" {
		t.Mode = ModeJSON
	}
	if t.ID == "" {
		t.ID = webrequest.Label(t.URL)
	}
	if t.Config == nil {
		t.Config = map[string]any{}
	}
	return t
}

func validateTarget(t Target) error {
	if t.URL == "" {
		return errors.New("url is required")
	}
	if t.ID == "" {
		return fmt.Errorf("id is required for target %q (url has no final path segment)", t.URL)
	}
	if t.Mode != ModeJSON && t.Mode != ModeLog {
		return fmt.Errorf("mode %q is not supported for target %q", t.Mode, t.ID)
	}
	return nil
}

// All returns a copy of the loaded targets in file order.
func (r *Registry) All() []Target {
	if r == nil {
		return nil
	}
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// ByID returns the target with the given id, if loaded.
func (r *Registry) ByID(id string) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	t, ok := r.idx[strings.TrimSpace(id)]
	return t, ok
}
