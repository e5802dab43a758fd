// Package material implements the material store: append-only evidentiary
// records with a truth classification. The current tier for a material type
// is the maximum rank ever observed among its revisions visible as of T, so
// upgrades persist and nothing ever downgrades implicitly.
package material

import (
	"time"

	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

// TruthClass ranks the evidentiary strength of a material revision.
// The order AI < HUMAN < DOC is total: a requirement at a given tier is
// satisfied by that tier or any higher one.
type TruthClass int

const (
	// TruthAI marks machine-generated material.
	TruthAI TruthClass = iota
	// TruthHuman marks human-reviewed material.
	TruthHuman
	// TruthDoc marks executed documentary evidence.
	TruthDoc
)

var truthNames = map[TruthClass]string{
	TruthAI:    "AI",
	TruthHuman: "HUMAN",
	TruthDoc:   "DOC",
}

var truthByName = map[string]TruthClass{
	"AI":    TruthAI,
	"HUMAN": TruthHuman,
	"DOC":   TruthDoc,
}

func (c TruthClass) String() string { return truthNames[c] }

// Satisfies reports whether material at tier c meets a requirement at tier
// required.
func (c TruthClass) Satisfies(required TruthClass) bool { return c >= required }

// ParseTruthClass validates a raw truth class name.
func ParseTruthClass(raw string) (TruthClass, error) {
	tier, ok := truthByName[raw]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeValidation, "unknown truth class %q", raw)
	}
	return tier, nil
}

// Revision is one append-only material record. A deal accumulates revisions
// per material type; none is ever replaced or deleted.
type Revision struct {
	ID           id.MaterialID
	DealID       id.DealID
	Type         string
	TruthClass   TruthClass
	ArtifactRefs []id.ArtifactID
	CreatedAt    time.Time
}

// CurrentTier returns the maximum truth class among revisions of the given
// type. found is false when no revision of that type exists.
func CurrentTier(revisions []Revision, materialType string) (tier TruthClass, found bool) {
	for _, rev := range revisions {
		if rev.Type != materialType {
			continue
		}
		if !found || rev.TruthClass > tier {
			tier = rev.TruthClass
		}
		found = true
	}
	return tier, found
}
