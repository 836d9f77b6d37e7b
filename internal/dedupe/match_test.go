package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

func TestCheckDuplicate_ExactEmail(t *testing.T) {
	candidate := model.Buyer{Email: "Jane@Example.com"}
	existing := model.Buyer{ID: "e1", Email: "jane@example.com"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	assert.Equal(t, 100, m.MatchScore)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
	assert.Equal(t, []string{"Exact email match"}, m.MatchReasons)
	assert.Equal(t, "e1", m.Buyer.ID)

	res := FindDuplicates(candidate, []model.Buyer{existing})
	assert.True(t, res.IsDuplicate)
	require.NotNil(t, res.BestMatch)
	assert.Equal(t, "e1", res.BestMatch.Buyer.ID)
}

func TestCheckDuplicate_PhoneAndFuzzyName(t *testing.T) {
	candidate := model.Buyer{Name: "Jon Smith", Phone: "555-123-4567"}
	existing := model.Buyer{ID: "e1", Name: "John Smith", Phone: "5551234567"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	// (35 + 20*0.9) / 55
	assert.Equal(t, 96, m.MatchScore)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
	assert.Equal(t, []string{"Exact phone match", "Name similarity: 90%"}, m.MatchReasons)
}

func TestCheckDuplicate_LocationOnly(t *testing.T) {
	candidate := model.Buyer{City: "Austin", State: "TX"}
	existing := model.Buyer{ID: "e1", City: "austin", State: "tx"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	// Location is the only comparable field, so it carries the whole score.
	assert.Equal(t, 100, m.MatchScore)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
	assert.Equal(t, []string{"Same location: austin, tx"}, m.MatchReasons)
	assert.Equal(t, m, CheckDuplicate(candidate, existing))
}

func TestCheckDuplicate_LocationNeedsCityAndState(t *testing.T) {
	candidate := model.Buyer{City: "Austin"}
	existing := model.Buyer{ID: "e1", City: "Austin", State: "TX"}
	assert.Nil(t, CheckDuplicate(candidate, existing))
}

func TestCheckDuplicate_PunctuationCityIsPresent(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com", City: "--", State: "TX"}
	existing := model.Buyer{ID: "e1", Email: "a@x.com", City: "Austin", State: "TX"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	// 40 of 50: the location is comparable and does not match.
	assert.Equal(t, 80, m.MatchScore)
	assert.Equal(t, []string{"Exact email match"}, m.MatchReasons)
}

func TestCheckDuplicate_BlankCityIsAbsent(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com", City: "  ", State: "TX"}
	existing := model.Buyer{ID: "e1", Email: "a@x.com", City: "Austin", State: "TX"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	assert.Equal(t, 100, m.MatchScore)
}

func TestCheckDuplicate_CompanyName(t *testing.T) {
	candidate := model.Buyer{CompanyName: "Acme Holdings LLC"}
	existing := model.Buyer{ID: "e1", CompanyName: "Acme Holdings, LLC"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	assert.Equal(t, 100, m.MatchScore)
	assert.Equal(t, []string{"Company name similarity: 100%"}, m.MatchReasons)
}

func TestCheckDuplicate_MismatchCountsInDenominator(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com", Phone: "5551112222"}
	existing := model.Buyer{ID: "e1", Email: "b@x.com", Phone: "(555) 111-2222"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	// 35 / 75
	assert.Equal(t, 47, m.MatchScore)
	assert.Equal(t, ConfidenceMedium, m.Confidence)
}

func TestCheckDuplicate_NameBelowThreshold(t *testing.T) {
	candidate := model.Buyer{Phone: "5551112222", Name: "Alice"}
	existing := model.Buyer{ID: "e1", Phone: "5551112222", Name: "Bob"}

	m := CheckDuplicate(candidate, existing)
	require.NotNil(t, m)
	// 35 / 55; the name is compared but contributes nothing.
	assert.Equal(t, 64, m.MatchScore)
	assert.Equal(t, []string{"Exact phone match"}, m.MatchReasons)
}

func TestCheckDuplicate_BelowFloor(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com", Phone: "1", Name: "Jon"}
	existing := model.Buyer{ID: "e1", Email: "b@x.com", Phone: "2", Name: "Jon"}
	// 20 / 95 = 21 < 30
	assert.Nil(t, CheckDuplicate(candidate, existing))
}

func TestCheckDuplicate_NoReasons(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com"}
	existing := model.Buyer{ID: "e1", Email: "b@x.com"}
	assert.Nil(t, CheckDuplicate(candidate, existing))
}

func TestCheckDuplicate_NothingComparable(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com"}
	existing := model.Buyer{ID: "e1", Phone: "5551112222"}
	assert.Nil(t, CheckDuplicate(candidate, existing))
}

func TestCheckDuplicate_DoesNotMutate(t *testing.T) {
	candidate := model.Buyer{Name: "Jon Smith", Phone: "555-123-4567", Tags: []string{"a"}}
	existing := model.Buyer{ID: "e1", Name: "John Smith", Phone: "5551234567", Markets: []string{"Austin"}}
	cBefore, eBefore := candidate.Clone(), existing.Clone()

	CheckDuplicate(candidate, existing)

	assert.Equal(t, cBefore, candidate)
	assert.Equal(t, eBefore, existing)
}

func TestClassifyConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ClassifyConfidence(100))
	assert.Equal(t, ConfidenceHigh, ClassifyConfidence(70))
	assert.Equal(t, ConfidenceMedium, ClassifyConfidence(69))
	assert.Equal(t, ConfidenceMedium, ClassifyConfidence(40))
	assert.Equal(t, ConfidenceLow, ClassifyConfidence(39))
	assert.Equal(t, ConfidenceLow, ClassifyConfidence(0))
}

// rankingFixture returns a candidate and a collection whose scores are
// r1=47 r2=100 r3=nil r4=53 r5=100 r6=100 r7=78 r8=53.
func rankingFixture() (model.Buyer, []model.Buyer) {
	candidate := model.Buyer{Email: "a@x.com", Phone: "5551112222", City: "Austin", State: "TX"}
	existing := []model.Buyer{
		{ID: "r1", Phone: "5551112222", Email: "z@x.com"},
		{ID: "r2", Email: "a@x.com"},
		{ID: "r3", City: "Austin", State: "TX", Email: "q@x.com"},
		{ID: "r4", Email: "a@x.com", Phone: "5559999999"},
		{ID: "r5", Phone: "555-111-2222"},
		{ID: "r6", Email: "A@X.com", City: "Austin", State: "TX"},
		{ID: "r7", Phone: "5551112222", City: "Dallas", State: "TX"},
		{ID: "r8", Email: "b@x.com", Phone: "5551112222", City: "Austin", State: "TX"},
	}
	return candidate, existing
}

func matchIDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Buyer.ID
	}
	return ids
}

func TestFindDuplicates_RanksStablyAndTruncates(t *testing.T) {
	candidate, existing := rankingFixture()

	res := FindDuplicates(candidate, existing)
	assert.Equal(t, []string{"r2", "r5", "r6", "r7", "r4"}, matchIDs(res.Matches))
	assert.Equal(t, []int{100, 100, 100, 78, 53}, []int{
		res.Matches[0].MatchScore, res.Matches[1].MatchScore, res.Matches[2].MatchScore,
		res.Matches[3].MatchScore, res.Matches[4].MatchScore,
	})
	require.NotNil(t, res.BestMatch)
	assert.Equal(t, "r2", res.BestMatch.Buyer.ID)
	assert.True(t, res.IsDuplicate)
}

func TestFindDuplicates_Deterministic(t *testing.T) {
	candidate, existing := rankingFixture()
	assert.Equal(t, FindDuplicates(candidate, existing), FindDuplicates(candidate, existing))
}

func TestFindDuplicates_EmptyCandidate(t *testing.T) {
	_, existing := rankingFixture()

	res := FindDuplicates(model.Buyer{}, existing)
	assert.False(t, res.IsDuplicate)
	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Nil(t, res.BestMatch)
}

func TestFindDuplicates_NoExisting(t *testing.T) {
	res := FindDuplicates(model.Buyer{Email: "a@x.com"}, nil)
	assert.False(t, res.IsDuplicate)
	assert.Empty(t, res.Matches)
}

func TestFindDuplicates_MediumBestIsNotDuplicate(t *testing.T) {
	candidate := model.Buyer{Email: "a@x.com", Phone: "5551112222"}
	existing := []model.Buyer{{ID: "e1", Email: "b@x.com", Phone: "5551112222"}}

	res := FindDuplicates(candidate, existing)
	require.NotNil(t, res.BestMatch)
	assert.Equal(t, 47, res.BestMatch.MatchScore)
	assert.False(t, res.IsDuplicate)
}

func TestFindDuplicates_ScoreBounds(t *testing.T) {
	candidate, existing := rankingFixture()
	candidates := append([]model.Buyer{candidate}, existing...)
	for _, c := range candidates {
		for _, m := range FindDuplicates(c, existing).Matches {
			assert.GreaterOrEqual(t, m.MatchScore, 0)
			assert.LessOrEqual(t, m.MatchScore, 100)
		}
	}
}

func TestResult_Without(t *testing.T) {
	candidate, existing := rankingFixture()
	res := FindDuplicates(candidate, existing)

	t.Run("nil set is a no-op", func(t *testing.T) {
		assert.Equal(t, res, res.Without(nil))
	})

	t.Run("best match recomputed", func(t *testing.T) {
		got := res.Without(map[string]bool{"r2": true})
		assert.Equal(t, []string{"r5", "r6", "r7", "r4"}, matchIDs(got.Matches))
		assert.Equal(t, "r5", got.BestMatch.Buyer.ID)
		assert.True(t, got.IsDuplicate)
	})

	t.Run("remaining high match keeps duplicate flag", func(t *testing.T) {
		got := res.Without(map[string]bool{"r2": true, "r5": true, "r6": true})
		assert.Equal(t, "r7", got.BestMatch.Buyer.ID)
		assert.True(t, got.IsDuplicate)
	})

	t.Run("only medium left", func(t *testing.T) {
		got := res.Without(map[string]bool{"r2": true, "r5": true, "r6": true, "r7": true})
		assert.Equal(t, "r4", got.BestMatch.Buyer.ID)
		assert.False(t, got.IsDuplicate)
	})

	t.Run("everything ignored", func(t *testing.T) {
		got := res.Without(map[string]bool{"r2": true, "r5": true, "r6": true, "r7": true, "r4": true})
		assert.Empty(t, got.Matches)
		assert.Nil(t, got.BestMatch)
		assert.False(t, got.IsDuplicate)
	})

	// The original result is untouched.
	assert.Len(t, res.Matches, 5)
	assert.Equal(t, "r2", res.BestMatch.Buyer.ID)
}
