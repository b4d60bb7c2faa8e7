package publishers

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/webrequest/pkg/webrequest"
)

// KindFailure in a filter matches every kind except success.
const KindFailure = "failure"

// Filter narrows the outcome events a publisher receives. Empty lists match
// everything.
type Filter struct {
	Kinds   []string `json:"kinds" yaml:"kinds"`
	Targets []string `json:"targets" yaml:"targets"`

	kinds   map[webrequest.Kind]bool
	targets map[string]bool
}

// compile validates f and returns a copy ready for Accepts.
func (f *Filter) compile() (*Filter, error) {
	out := &Filter{}
	if len(f.Kinds) > 0 {
		out.kinds = make(map[webrequest.Kind]bool)
	}
	for _, raw := range f.Kinds {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		out.Kinds = append(out.Kinds, name)
		if name == KindFailure {
			out.kinds[webrequest.KindConnectionError] = true
			out.kinds[webrequest.KindDataProcessingError] = true
			out.kinds[webrequest.KindProtocolError] = true
			continue
		}
		k, ok := webrequest.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("filter kind %q is not an outcome kind", raw)
		}
		out.kinds[k] = true
	}

	for _, raw := range f.Targets {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if out.targets == nil {
			out.targets = make(map[string]bool)
		}
		out.Targets = append(out.Targets, id)
		out.targets[id] = true
	}
	return out, nil
}

// Accepts reports whether evt passes the filter. A nil filter accepts all.
func (f *Filter) Accepts(evt Event) bool {
	if f == nil {
		return true
	}
	if len(f.targets) > 0 && !f.targets[evt.TargetID] {
		return false
	}
	if len(f.kinds) > 0 {
		k, ok := webrequest.ParseKind(evt.Kind)
		if !ok || !f.kinds[k] {
			return false
		}
	}
	return true
}

// filtered wraps a publisher with its configured filter.
type filtered struct {
	Publisher
	filter *Filter
}

func (f filtered) Accepts(evt Event) bool { return f.filter.Accepts(evt) }

func (f filtered) Close() error {
	if c, ok := f.Publisher.(Closer); ok {
		return c.Close()
	}
	return nil
}
