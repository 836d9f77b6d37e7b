package dedupe

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

var mergeTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func freezeNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return mergeTime }
	t.Cleanup(func() { now = orig })
}

func i64(v int64) *int64 { return &v }

func mergePair() (model.Buyer, model.Buyer) {
	primary := model.Buyer{
		ID:        "p1",
		OwnerID:   "owner-1",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		City:      "Austin",
		Markets:   []string{"Austin", "Dallas"},
		MinBudget: i64(100000),
		Notes:     "Prefers duplexes.",
		Tags:      []string{"cash", "vip"},
		Priority:  "HIGH",
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	secondary := model.Buyer{
		ID:            "s1",
		OwnerID:       "owner-1",
		Name:          "Jane M. Doe",
		Email:         "jdoe@work.com",
		Phone:         "555-123-4567",
		CompanyName:   "Doe Capital",
		City:          "Round Rock",
		State:         "TX",
		Markets:       []string{"Dallas", "Houston"},
		PropertyTypes: []string{"SFR"},
		MinBudget:     i64(50000),
		MaxBudget:     i64(400000),
		Notes:         "Closes in 10 days.",
		Tags:          []string{"vip", "flipper"},
		Priority:      "VERY HIGH",
		CreatedAt:     t0.Add(24 * time.Hour),
		UpdatedAt:     t0.Add(24 * time.Hour),
	}
	return primary, secondary
}

func TestMergeBuyerData_DefaultFillsGaps(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, nil)
	require.NoError(t, err)

	// Primary values kept where present.
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, []string{"Austin", "Dallas"}, got.Markets)
	assert.Equal(t, int64(100000), *got.MinBudget)
	assert.Equal(t, "Prefers duplexes.", got.Notes)

	// Gaps filled from secondary.
	assert.Equal(t, "555-123-4567", got.Phone)
	assert.Equal(t, "Doe Capital", got.CompanyName)
	assert.Equal(t, "TX", got.State)
	assert.Equal(t, []string{"SFR"}, got.PropertyTypes)
	assert.Equal(t, int64(400000), *got.MaxBudget)
}

func TestMergeBuyerData_IdentityFromPrimary(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{model.FieldName: model.ChoiceSecondary})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, mergeTime, got.UpdatedAt)
}

func TestMergeBuyerData_Secondary(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{
		model.FieldEmail:     model.ChoiceSecondary,
		model.FieldMarkets:   model.ChoiceSecondary,
		model.FieldMinBudget: model.ChoiceSecondary,
	})
	require.NoError(t, err)
	assert.Equal(t, "jdoe@work.com", got.Email)
	assert.Equal(t, []string{"Dallas", "Houston"}, got.Markets)
	assert.Equal(t, int64(50000), *got.MinBudget)
}

func TestMergeBuyerData_SecondaryWithoutValueKeepsPrimary(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()
	secondary.Email = ""
	secondary.Markets = nil
	secondary.MinBudget = nil

	got, err := MergeBuyerData(primary, secondary, MergeChoices{
		model.FieldEmail:     model.ChoiceSecondary,
		model.FieldMarkets:   model.ChoiceSecondary,
		model.FieldMinBudget: model.ChoiceSecondary,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, []string{"Austin", "Dallas"}, got.Markets)
	assert.Equal(t, int64(100000), *got.MinBudget)
}

func TestMergeBuyerData_ExplicitPrimaryKeepsEmpty(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{
		model.FieldPhone:     model.ChoicePrimary,
		model.FieldMaxBudget: model.ChoicePrimary,
	})
	require.NoError(t, err)
	assert.Equal(t, "", got.Phone)
	assert.Nil(t, got.MaxBudget)
}

func TestMergeBuyerData_BothText(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{model.FieldNotes: model.ChoiceBoth})
	require.NoError(t, err)
	assert.Equal(t, "Prefers duplexes.\n\nCloses in 10 days.", got.Notes)

	primary.Notes = ""
	got, err = MergeBuyerData(primary, secondary, MergeChoices{model.FieldNotes: model.ChoiceBoth})
	require.NoError(t, err)
	assert.Equal(t, "Closes in 10 days.", got.Notes)
}

func TestMergeBuyerData_BothList(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{
		model.FieldMarkets:       model.ChoiceBoth,
		model.FieldPropertyTypes: model.ChoiceBoth,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Austin", "Dallas", "Houston"}, got.Markets)
	assert.Equal(t, []string{"SFR"}, got.PropertyTypes)
}

func TestMergeBuyerData_BothNumericIsError(t *testing.T) {
	primary, secondary := mergePair()

	_, err := MergeBuyerData(primary, secondary, MergeChoices{model.FieldMaxBudget: model.ChoiceBoth})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedBoth))
	assert.Contains(t, err.Error(), "max_budget")
}

func TestMergeBuyerData_RejectsUnknownFieldAndChoice(t *testing.T) {
	primary, secondary := mergePair()

	_, err := MergeBuyerData(primary, secondary, MergeChoices{model.Field("id"): model.ChoiceSecondary})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not mergeable")

	_, err = MergeBuyerData(primary, secondary, MergeChoices{model.FieldName: model.MergeChoice("newest")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown merge choice")
}

func TestMergeBuyerData_Priority(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, nil)
	require.NoError(t, err)
	assert.Equal(t, "VERY HIGH", got.Priority)

	secondary.Priority = "LOW"
	got, err = MergeBuyerData(primary, secondary, nil)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", got.Priority)

	secondary.Priority = "high"
	got, err = MergeBuyerData(primary, secondary, nil)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", got.Priority)

	primary.Priority = ""
	secondary.Priority = "whenever"
	got, err = MergeBuyerData(primary, secondary, nil)
	require.NoError(t, err)
	assert.Equal(t, "", got.Priority)
}

func TestMergeBuyerData_TagsAlwaysUnioned(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{model.FieldName: model.ChoicePrimary})
	require.NoError(t, err)
	assert.Equal(t, []string{"cash", "vip", "flipper"}, got.Tags)
}

func TestMergeBuyerData_DoesNotMutateInputs(t *testing.T) {
	freezeNow(t)
	primary, secondary := mergePair()
	pBefore, sBefore := primary.Clone(), secondary.Clone()

	got, err := MergeBuyerData(primary, secondary, MergeChoices{
		model.FieldMarkets:       model.ChoiceBoth,
		model.FieldPropertyTypes: model.ChoiceSecondary,
		model.FieldNotes:         model.ChoiceBoth,
		model.FieldMinBudget:     model.ChoiceSecondary,
	})
	require.NoError(t, err)

	// Mutating the result must not leak into the inputs either.
	got.Markets[0] = "changed"
	got.PropertyTypes[0] = "changed"
	*got.MinBudget = 1
	*got.MaxBudget = 2

	assert.Equal(t, pBefore, primary)
	assert.Equal(t, sBefore, secondary)
}

func TestMergeBuyerData_Idempotent(t *testing.T) {
	freezeNow(t)
	primary, _ := mergePair()
	primary.Tags = []string{"cash", "vip", "cash"}

	got, err := MergeBuyerData(primary, primary, nil)
	require.NoError(t, err)

	for _, f := range model.MergeableFields {
		switch kind, _ := f.Kind(); kind {
		case model.KindText:
			assert.Equal(t, primary.Text(f), got.Text(f), string(f))
		case model.KindList:
			assert.ElementsMatch(t, primary.List(f), got.List(f), string(f))
		case model.KindNumber:
			assert.Equal(t, primary.Number(f), got.Number(f), string(f))
		}
	}
	assert.Equal(t, primary.Priority, got.Priority)
	assert.Equal(t, []string{"cash", "vip"}, got.Tags)
}

func TestParseMergeChoices(t *testing.T) {
	choices, err := ParseMergeChoices(map[string]string{"markets": "both", "email": "secondary"})
	require.NoError(t, err)
	assert.Equal(t, model.ChoiceBoth, choices[model.FieldMarkets])
	assert.Equal(t, model.ChoiceSecondary, choices[model.FieldEmail])

	_, err = ParseMergeChoices(map[string]string{"created_at": "secondary"})
	assert.Error(t, err)

	_, err = ParseMergeChoices(map[string]string{"name": "latest"})
	assert.Error(t, err)

	empty, err := ParseMergeChoices(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
