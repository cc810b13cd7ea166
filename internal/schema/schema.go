// Package schema holds declarative provider schemas and the structural
// pattern rules evaluated against records. Adding a provider means adding
// a schema entry, never touching scoring code.
package schema

import (
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
)

// Schema declares the structural expectations for one provider's records:
// required fields, enumerated values, and format predicates for
// identifier/URL fields.
type Schema struct {
	Name        string              `yaml:"name"`
	Required    []string            `yaml:"required"`
	Enums       map[string][]string `yaml:"enums"`
	Formats     map[string]string   `yaml:"formats"`
	NonNegative []string            `yaml:"non_negative"`

	compiled map[string]*regexp.Regexp
}

// compile pre-builds the format predicates. Called once at registration.
func (s *Schema) compile() error {
	s.compiled = make(map[string]*regexp.Regexp, len(s.Formats))
	for field, pattern := range s.Formats {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return eris.Wrapf(err, "schema: %s: bad format for field %s", s.Name, field)
		}
		s.compiled[field] = re
	}
	return nil
}

// Registry is a keyed table of provider schemas.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry returns a registry pre-loaded with the built-in provider
// schemas.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]*Schema)}
	for _, s := range builtins() {
		// Built-in patterns are static; a compile failure is a bug.
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds or replaces a schema, compiling its format predicates.
func (r *Registry) Register(s *Schema) error {
	if s.Name == "" {
		return eris.New("schema: register: empty name")
	}
	if err := s.compile(); err != nil {
		return err
	}
	r.schemas[s.Name] = s
	return nil
}

// Get returns the named schema. An unknown name is a programmer error.
func (r *Registry) Get(name string) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, eris.Errorf("schema: unknown provider schema %q", name)
	}
	return s, nil
}

// Names lists the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtins() []*Schema {
	return []*Schema{
		{
			Name:     "github_actions",
			Required: []string{"id", "status", "created_at", "html_url"},
			Enums: map[string][]string{
				"status":     {"queued", "in_progress", "completed"},
				"conclusion": {"success", "failure", "neutral", "cancelled", "skipped", "timed_out", "action_required"},
			},
			Formats: map[string]string{
				"id":       `^[0-9]+$`,
				"html_url": `^https://github\.com/[^/]+/[^/]+/`,
				"node_id":  `^[A-Za-z0-9_=+/-]+$`,
			},
			NonNegative: []string{"run_number", "run_attempt", "duration_seconds"},
		},
		{
			Name:     "gitlab_ci",
			Required: []string{"id", "status", "created_at", "web_url"},
			Enums: map[string][]string{
				"status": {"created", "waiting_for_resource", "preparing", "pending", "running", "success", "failed", "canceled", "skipped", "manual", "scheduled"},
			},
			Formats: map[string]string{
				"id":      `^[0-9]+$`,
				"web_url": `^https://`,
			},
			NonNegative: []string{"duration", "queued_duration", "iid"},
		},
		{
			Name:     "jenkins",
			Required: []string{"id", "result", "timestamp", "url"},
			Enums: map[string][]string{
				"result": {"SUCCESS", "FAILURE", "UNSTABLE", "ABORTED", "NOT_BUILT"},
			},
			Formats: map[string]string{
				"id":  `^[0-9]+$`,
				"url": `^https?://`,
			},
			NonNegative: []string{"duration", "number", "estimatedDuration"},
		},
	}
}
