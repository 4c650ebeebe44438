// Package manifest loads declarative workflow definitions from YAML and
// builds runnable task trees from them.
//
// A manifest names a workflow and lists its root groups. Each group holds an
// ordered list of children; a child with a `run` command is a task, a child
// with a `children` list is a nested group. Task commands execute through
// `sh -c`; a task may request a branch jump by printing `next: <id>` as the
// last line of its stdout.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
)

// Manifest is a parsed workflow definition file.
type Manifest struct {
	Workflow WorkflowMeta `yaml:"workflow"`
	Groups   []GroupSpec  `yaml:"groups"`
}

// WorkflowMeta carries workflow-level metadata.
type WorkflowMeta struct {
	// Name identifies the workflow in logs and events.
	Name string `yaml:"name"`
}

// GroupSpec defines a root-level task group.
type GroupSpec struct {
	ID       string     `yaml:"id"`
	Children []NodeSpec `yaml:"children"`
}

// NodeSpec defines one child of a group: a task when Run is set, a nested
// group when Children is set. Exactly one of the two must be present.
type NodeSpec struct {
	ID string `yaml:"id"`

	// Task fields
	Run       string `yaml:"run,omitempty"`
	Condition string `yaml:"condition,omitempty"`
	Retries   *int   `yaml:"retries,omitempty"`
	WaitMs    *int   `yaml:"wait_ms,omitempty"`

	// Group fields
	Children []NodeSpec `yaml:"children,omitempty"`
}

// IsGroup reports whether the spec defines a nested group.
func (n *NodeSpec) IsGroup() bool {
	return len(n.Children) > 0 || n.Run == ""
}

// Load reads and parses a manifest file. Unknown fields are rejected.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Parse parses manifest bytes. Unknown fields are rejected.
// The result is validated.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for structural problems: missing or duplicate
// ids, children that are neither task nor group, and negative retry values.
func (m *Manifest) Validate() error {
	var errs []error

	if len(m.Groups) == 0 {
		errs = append(errs, errors.NewValidationError("manifest defines no groups"))
	}

	seen := make(map[string]bool)
	for _, g := range m.Groups {
		if g.ID == "" {
			errs = append(errs, errors.NewValidationError("group id cannot be empty"))
			continue
		}
		if seen[g.ID] {
			errs = append(errs, errors.NewValidationError("duplicate group id").
				WithField("id").WithValue(g.ID))
		}
		seen[g.ID] = true
		errs = append(errs, validateChildren(g.ID, g.Children)...)
	}

	return errors.Join(errs...)
}

func validateChildren(parent string, children []NodeSpec) []error {
	var errs []error

	seen := make(map[string]bool)
	for i := range children {
		c := &children[i]
		if c.ID == "" {
			errs = append(errs, errors.NewValidationError("child id cannot be empty").
				WithField("parent").WithValue(parent))
			continue
		}
		if seen[c.ID] {
			errs = append(errs, errors.NewValidationError("duplicate child id").
				WithField("id").WithValue(parent+"/"+c.ID))
		}
		seen[c.ID] = true

		if c.Run != "" && len(c.Children) > 0 {
			errs = append(errs, errors.NewValidationError("child cannot have both run and children").
				WithField("id").WithValue(c.ID))
			continue
		}
		if c.Run == "" && len(c.Children) == 0 {
			errs = append(errs, errors.NewValidationError("child needs either run or children").
				WithField("id").WithValue(c.ID))
			continue
		}

		if c.IsGroup() {
			if c.Condition != "" || c.Retries != nil || c.WaitMs != nil {
				errs = append(errs, errors.NewValidationError("task fields are not valid on a group").
					WithField("id").WithValue(c.ID))
			}
			errs = append(errs, validateChildren(parent+"/"+c.ID, c.Children)...)
			continue
		}

		if c.Retries != nil && *c.Retries < 0 {
			errs = append(errs, errors.NewValidationError("retries must be non-negative").
				WithField("id").WithValue(c.ID))
		}
		if c.WaitMs != nil && *c.WaitMs < 0 {
			errs = append(errs, errors.NewValidationError("wait_ms must be non-negative").
				WithField("id").WithValue(c.ID))
		}
	}

	return errs
}
