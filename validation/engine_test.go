package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/types"
)

type listVisibility struct{}

// region_text shows only when the region list failed.
func (listVisibility) Visible(field, rule string, fields types.Fields, lists map[string]types.ListStatus) bool {
	return lists["region"] == types.ListError
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	today := func() time.Time { return day(2026, 10, 16) }
	e, err := NewEngine([]StepDefinition{
		{
			Title: "Personal",
			Fields: []FieldDefinition{
				{Name: "full_name", Label: "Full name", Required: true, Rules: []Rule{FullName()}},
				{Name: "date_of_birth", Label: "Date of birth", Required: true, Rules: []Rule{Date(DateLayout), AgeGate(18, today)}},
			},
		},
		{
			Title: "Address",
			Fields: []FieldDefinition{
				{Name: "region", Label: "Region", Required: true},
				{Name: "region_text", Label: "Region", Required: true, VisibleWhen: `lists.region == "error"`},
				{Name: "nickname", Label: "Nickname", Rules: []Rule{MaxLength(5)}},
				{Name: "newsletter", Label: "Newsletter", Default: false},
			},
		},
	}, WithVisibility(listVisibility{}))
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadDefinitions(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)

	_, err = NewEngine([]StepDefinition{
		{Fields: []FieldDefinition{{Name: "a"}}},
		{Fields: []FieldDefinition{{Name: "a"}}},
	})
	assert.ErrorContains(t, err, `field "a"`)

	_, err = NewEngine([]StepDefinition{{Fields: []FieldDefinition{{}}}})
	assert.Error(t, err)
}

func TestEngineDefaultsAndLookup(t *testing.T) {
	e := testEngine(t)
	assert.Equal(t, 2, e.TotalSteps())
	assert.Equal(t, types.Fields{
		"full_name": "", "date_of_birth": "", "region": "", "region_text": "", "nickname": "", "newsletter": false,
	}, e.Defaults())

	_, step, ok := e.Field("region")
	require.True(t, ok)
	assert.Equal(t, 2, step)

	_, ok = e.Step(3)
	assert.False(t, ok)
	assert.Len(t, e.FieldInfos(), 6)
}

func TestValidateFieldFirstFailureWins(t *testing.T) {
	e := testEngine(t)
	snap := Snapshot{Fields: types.Fields{"full_name": ""}}
	assert.Equal(t, "Full name is required", e.ValidateField(1, "full_name", snap))

	snap.Fields["full_name"] = "Ada"
	assert.Equal(t, "Please enter your first and last name", e.ValidateField(1, "full_name", snap))

	snap.Fields["full_name"] = "Ada Lovelace"
	assert.Equal(t, "", e.ValidateField(1, "full_name", snap))

	assert.Equal(t, "", e.ValidateField(2, "full_name", snap), "field outside step")
	assert.Equal(t, "", e.ValidateField(1, "unknown", snap))
}

func TestAgeGateOnlyOnAdvance(t *testing.T) {
	e := testEngine(t)
	snap := Snapshot{Fields: types.Fields{"full_name": "Ada Lovelace", "date_of_birth": "2010-01-01"}}
	assert.Equal(t, "", e.LiveValidateField(1, "date_of_birth", snap))
	assert.Equal(t, "You must be at least 18 years old to register", e.ValidateField(1, "date_of_birth", snap))
	assert.False(t, e.CanAdvance(1, snap))

	snap.Fields["date_of_birth"] = "2008-10-16"
	assert.True(t, e.CanAdvance(1, snap))
}

func TestCanAdvanceFlipsWhenLastFieldIsFixed(t *testing.T) {
	e := testEngine(t)
	snap := Snapshot{Fields: types.Fields{"full_name": "Ada", "date_of_birth": "1990-05-01"}}
	assert.False(t, e.CanAdvance(1, snap))
	assert.Equal(t, map[string]string{"full_name": "Please enter your first and last name"}, e.ValidateStep(1, snap))

	snap.Fields["full_name"] = "Ada Lovelace"
	assert.True(t, e.CanAdvance(1, snap))
	assert.False(t, e.CanAdvance(7, snap))
}

func TestHiddenFieldsAreNotGated(t *testing.T) {
	e := testEngine(t)
	snap := Snapshot{
		Fields: types.Fields{"region": "Ontario", "region_text": ""},
		Lists:  map[string]types.ListStatus{"region": types.ListReady},
	}
	assert.True(t, e.CanAdvance(2, snap))
	assert.Len(t, e.VisibleFields(2, snap), 3)

	snap.Lists["region"] = types.ListError
	snap.Fields["region"] = ""
	errs := e.ValidateStep(2, snap)
	assert.Equal(t, "Region is required", errs["region_text"])
}

func TestOptionalFieldSkipsRulesWhenEmpty(t *testing.T) {
	e := testEngine(t)
	snap := Snapshot{Fields: types.Fields{"region": "x", "nickname": ""}}
	assert.Equal(t, "", e.ValidateField(2, "nickname", snap))
	snap.Fields["nickname"] = "toolong"
	assert.Equal(t, "Must be at most 5 characters", e.ValidateField(2, "nickname", snap))
	assert.False(t, e.CanAdvance(2, snap))
}
