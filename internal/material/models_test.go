package material

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dealgate/pkg/domain"
)

func TestTruthClass(t *testing.T) {
	t.Run("order is AI < HUMAN < DOC", func(t *testing.T) {
		assert.True(t, TruthAI < TruthHuman)
		assert.True(t, TruthHuman < TruthDoc)
	})

	t.Run("HUMAN requirement satisfied by HUMAN or DOC", func(t *testing.T) {
		assert.True(t, TruthHuman.Satisfies(TruthHuman))
		assert.True(t, TruthDoc.Satisfies(TruthHuman))
		assert.False(t, TruthAI.Satisfies(TruthHuman))
	})

	t.Run("DOC requirement satisfied only by DOC", func(t *testing.T) {
		assert.True(t, TruthDoc.Satisfies(TruthDoc))
		assert.False(t, TruthHuman.Satisfies(TruthDoc))
		assert.False(t, TruthAI.Satisfies(TruthDoc))
	})

	t.Run("parse round trips", func(t *testing.T) {
		for _, tier := range []TruthClass{TruthAI, TruthHuman, TruthDoc} {
			parsed, err := ParseTruthClass(tier.String())
			require.NoError(t, err)
			assert.Equal(t, tier, parsed)
		}
		_, err := ParseTruthClass("GUESS")
		require.Error(t, err)
	})
}

func TestCurrentTier(t *testing.T) {
	dealID := id.NewDealID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rev := func(matType string, tier TruthClass, at time.Time) Revision {
		return Revision{
			ID:         id.NewMaterialID(),
			DealID:     dealID,
			Type:       matType,
			TruthClass: tier,
			CreatedAt:  at,
		}
	}

	t.Run("missing type reports not found", func(t *testing.T) {
		_, found := CurrentTier([]Revision{rev("UnderwritingSummary", TruthAI, base)}, "WireConfirmation")
		assert.False(t, found)
	})

	t.Run("current tier is the maximum rank observed", func(t *testing.T) {
		revisions := []Revision{
			rev("UnderwritingSummary", TruthAI, base),
			rev("UnderwritingSummary", TruthDoc, base.Add(time.Hour)),
			rev("UnderwritingSummary", TruthHuman, base.Add(2*time.Hour)),
		}
		tier, found := CurrentTier(revisions, "UnderwritingSummary")
		require.True(t, found)
		// A later HUMAN revision never downgrades an earlier DOC one.
		assert.Equal(t, TruthDoc, tier)
	})

	t.Run("types are independent", func(t *testing.T) {
		revisions := []Revision{
			rev("UnderwritingSummary", TruthDoc, base),
			rev("SourcesAndUses", TruthAI, base),
		}
		tier, found := CurrentTier(revisions, "SourcesAndUses")
		require.True(t, found)
		assert.Equal(t, TruthAI, tier)
	})
}
