package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// chainFixture builds A~B (100), B~C (94) and A~C (48).
func chainFixture() (a, b, c model.Buyer) {
	a = model.Buyer{ID: "A", Email: "alice@x.com", Name: "Alice Smith", CompanyName: "Acme", CreatedAt: t0}
	b = model.Buyer{ID: "B", Email: "alice@x.com", Phone: "5551110000", Name: "Alice Smith", CreatedAt: t0.Add(time.Hour)}
	c = model.Buyer{ID: "C", Phone: "5551110000", Name: "Alicia Smith", CompanyName: "Zenith", CreatedAt: t0.Add(2 * time.Hour)}
	return a, b, c
}

func TestChainFixtureScores(t *testing.T) {
	a, b, c := chainFixture()

	ab := CheckDuplicate(a, b)
	require.NotNil(t, ab)
	assert.Equal(t, 100, ab.MatchScore)

	bc := CheckDuplicate(b, c)
	require.NotNil(t, bc)
	assert.Equal(t, 94, bc.MatchScore)

	ac := CheckDuplicate(a, c)
	require.NotNil(t, ac)
	assert.Equal(t, 48, ac.MatchScore)
	assert.Equal(t, ConfidenceMedium, ac.Confidence)
}

func TestFindClusters_PairwiseOnly(t *testing.T) {
	a, b, c := chainFixture()

	clusters := FindClusters([]model.Buyer{c, a, b})
	require.Len(t, clusters, 1)
	assert.Equal(t, "A", clusters[0].Primary.ID)
	assert.Equal(t, []string{"B"}, matchIDs(clusters[0].Duplicates))
}

func TestFindClusters_OrderedByCreatedAt(t *testing.T) {
	a, b, c := chainFixture()
	// Make B the oldest record: it claims both neighbours.
	b.CreatedAt = t0.Add(-time.Hour)

	clusters := FindClusters([]model.Buyer{a, b, c})
	require.Len(t, clusters, 1)
	assert.Equal(t, "B", clusters[0].Primary.ID)
	assert.Equal(t, []string{"A", "C"}, matchIDs(clusters[0].Duplicates))
}

func TestFindClusters_NoOverlap(t *testing.T) {
	records := []model.Buyer{
		{ID: "1", Email: "x@x.com", CreatedAt: t0},
		{ID: "2", Email: "x@x.com", CreatedAt: t0.Add(1 * time.Minute)},
		{ID: "3", Email: "x@x.com", Phone: "5550001111", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "4", Phone: "5550001111", CreatedAt: t0.Add(3 * time.Minute)},
		{ID: "5", Phone: "5550001111", CreatedAt: t0.Add(4 * time.Minute)},
		{ID: "6", Name: "Unrelated Person", CreatedAt: t0.Add(5 * time.Minute)},
	}

	clusters := FindClusters(records)
	seen := map[string]bool{}
	for _, cl := range clusters {
		ids := append([]string{cl.Primary.ID}, matchIDs(cl.Duplicates)...)
		for _, id := range ids {
			assert.False(t, seen[id], "record %s in two clusters", id)
			seen[id] = true
		}
		assert.NotEmpty(t, cl.Duplicates)
	}
	assert.False(t, seen["6"])

	require.Len(t, clusters, 2)
	assert.Equal(t, "1", clusters[0].Primary.ID)
	assert.Equal(t, []string{"2", "3"}, matchIDs(clusters[0].Duplicates))
	assert.Equal(t, "4", clusters[1].Primary.ID)
	assert.Equal(t, []string{"5"}, matchIDs(clusters[1].Duplicates))
}

func TestFindClusters_Empty(t *testing.T) {
	assert.Empty(t, FindClusters(nil))
	assert.Empty(t, FindClusters([]model.Buyer{{ID: "solo", Email: "a@x.com"}}))
}

func TestFindClusters_DoesNotReorderInput(t *testing.T) {
	a, b, c := chainFixture()
	in := []model.Buyer{c, b, a}
	FindClusters(in)
	assert.Equal(t, []string{"C", "B", "A"}, []string{in[0].ID, in[1].ID, in[2].ID})
}
