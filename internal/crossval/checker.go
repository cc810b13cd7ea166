// Package crossval verifies referential integrity across related record
// collections: every foreign key in a referencing collection must resolve
// to a key in the referenced one. A fabricated data source typically
// invents records whose references point nowhere.
package crossval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/model"
)

// CodeOrphanedReference marks a foreign key with no matching parent.
const CodeOrphanedReference = "orphaned_reference"

// Reference declares one foreign-key relationship between two named
// collections. ToField defaults to "id".
type Reference struct {
	From      string `json:"from" yaml:"from"`
	FromField string `json:"from_field" yaml:"from_field"`
	To        string `json:"to" yaml:"to"`
	ToField   string `json:"to_field,omitempty" yaml:"to_field,omitempty"`
}

// Check verifies every declared reference across the collections. With
// fewer than two collections there is nothing to cross-validate and the
// result is empty, not an error. A nil refs slice falls back to
// InferReferences.
func Check(collections map[string][]model.Record, refs []Reference, cfg config.CrossValConfig) []model.ValidationIssue {
	if len(collections) < 2 {
		return nil
	}
	if refs == nil {
		refs = InferReferences(collections)
	}

	var issues []model.ValidationIssue
	for _, ref := range refs {
		issues = append(issues, checkReference(collections, ref, cfg)...)
	}
	return issues
}

func checkReference(collections map[string][]model.Record, ref Reference, cfg config.CrossValConfig) []model.ValidationIssue {
	toField := ref.ToField
	if toField == "" {
		toField = "id"
	}

	parents, ok := collections[ref.To]
	if !ok {
		return nil
	}
	children, ok := collections[ref.From]
	if !ok {
		return nil
	}

	index := make(map[string]struct{}, len(parents))
	for _, p := range parents {
		if key, ok := keyString(p, toField); ok {
			index[key] = struct{}{}
		}
	}

	var issues []model.ValidationIssue
	for i, child := range children {
		fk, ok := keyString(child, ref.FromField)
		if !ok {
			// Absent foreign keys are a structural concern for the
			// pattern rules, not a dangling reference.
			continue
		}
		if _, found := index[fk]; !found {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeOrphanedReference,
				Message:  fmt.Sprintf("%s[%d].%s=%q has no match in %s.%s", ref.From, i, ref.FromField, fk, ref.To, toField),
				Severity: model.SeverityHard,
				Penalty:  cfg.OrphanPenalty,
			})
		}
	}
	return issues
}

// InferReferences derives foreign-key relationships by field naming: a
// field "<name>_id" in one collection referencing a collection named
// "<name>s" (or "<name>es"). Covers the common runs→workflows,
// jobs→runs, artifacts→jobs layouts without explicit wiring.
func InferReferences(collections map[string][]model.Record) []Reference {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []Reference
	for _, from := range names {
		records := collections[from]
		if len(records) == 0 {
			continue
		}
		seen := map[string]struct{}{}
		for _, rec := range records {
			for field := range rec {
				if !strings.HasSuffix(field, "_id") {
					continue
				}
				if _, dup := seen[field]; dup {
					continue
				}
				seen[field] = struct{}{}
				base := strings.TrimSuffix(field, "_id")
				for _, suffix := range []string{"s", "es"} {
					to := base + suffix
					if to == from {
						continue
					}
					if _, ok := collections[to]; ok {
						refs = append(refs, Reference{From: from, FromField: field, To: to})
						break
					}
				}
			}
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].From != refs[j].From {
			return refs[i].From < refs[j].From
		}
		return refs[i].FromField < refs[j].FromField
	})
	return refs
}

// keyString renders a key or foreign-key field for index comparison.
func keyString(rec model.Record, field string) (string, bool) {
	if s, ok := rec.GetString(field); ok {
		return s, s != ""
	}
	if n, ok := rec.GetNumber(field); ok {
		return fmt.Sprintf("%v", n), true
	}
	return "", false
}
