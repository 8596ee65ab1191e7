package migration

import (
	"fmt"
	"time"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

// Step upgrades a user document from version From to From+1.
type Step struct {
	From    int
	Name    string
	Upgrade func(doc repository.Document, now time.Time) (repository.Document, error)
}

// Chain is an ordered list of steps ending at domain.CurrentUserSchemaVersion.
type Chain []Step

// DefaultChain returns every known user upgrade step.
func DefaultChain() Chain {
	return Chain{
		{From: 0, Name: "nested layout", Upgrade: upgradeLegacyUser},
	}
}

// SchemaVersion returns the schemaVersion of a document. Documents without
// one are version 0.
func SchemaVersion(doc repository.Document) int {
	switch v := doc["schemaVersion"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Upgrade applies every step from the document's version to the current
// one. It reports changed=false for documents already at the current version.
func (c Chain) Upgrade(doc repository.Document, now time.Time) (repository.Document, bool, error) {
	v := SchemaVersion(doc)
	if v > domain.CurrentUserSchemaVersion {
		return nil, false, fmt.Errorf("%w: %d", domain.ErrUnsupportedSchemaVersion, v)
	}
	if v == domain.CurrentUserSchemaVersion {
		return doc, false, nil
	}

	out := repository.CloneDocument(doc)
	for v < domain.CurrentUserSchemaVersion {
		step, ok := c.step(v)
		if !ok {
			return nil, false, fmt.Errorf("no upgrade step from schema version %d", v)
		}
		next, err := step.Upgrade(out, now)
		if err != nil {
			return nil, false, fmt.Errorf("upgrade %q from version %d: %w", step.Name, v, err)
		}
		v++
		next["schemaVersion"] = float64(v)
		out = next
	}
	return out, true, nil
}

func (c Chain) step(from int) (Step, bool) {
	for _, s := range c {
		if s.From == from {
			return s, true
		}
	}
	return Step{}, false
}
