package models

import (
	"math"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCaseStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to CaseStatus
		want     bool
	}{
		{CaseAssigned, CaseInProgress, true},
		{CaseAssigned, CaseCompleted, false},
		{CaseInProgress, CaseInReview, true},
		{CaseInReview, CaseInProgress, true},
		{CaseInReview, CaseCompleted, true},
		{CaseCompleted, CaseInProgress, false},
		{CaseCancelled, CaseAssigned, false},
		{CaseCompleted, CaseCompleted, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCaseUpdate_Apply(t *testing.T) {
	c := &Case{ID: "c1", Status: CaseAssigned, VehicleMake: "Toyota", Mileage: 10}

	u := CaseUpdate{Status: ptr(CaseInProgress), Mileage: ptr(12000), Color: ptr("red")}
	require.NoError(t, u.Apply(c))

	assert.Equal(t, CaseInProgress, c.Status)
	assert.Equal(t, 12000, c.Mileage)
	assert.Equal(t, "red", c.Color)
	assert.Equal(t, "Toyota", c.VehicleMake, "untouched fields stay")

	assert.Equal(t, map[string]any{"status": "in_progress", "mileage": 12000, "color": "red"}, u.Fields())
	assert.False(t, u.Empty())
	assert.True(t, CaseUpdate{}.Empty())
}

func TestCaseUpdate_ApplyRejects(t *testing.T) {
	c := &Case{Status: CaseCompleted}

	err := CaseUpdate{Status: ptr(CaseInProgress)}.Apply(c)
	require.ErrorIs(t, err, common.ErrInvalidTransition)

	err = CaseUpdate{Status: ptr(CaseStatus("lost"))}.Apply(c)
	require.ErrorIs(t, err, common.ErrInvalidValue)

	err = CaseUpdate{Mileage: ptr(-1)}.Apply(c)
	require.ErrorIs(t, err, common.ErrInvalidValue)

	assert.Equal(t, CaseCompleted, c.Status)
}

func TestCase_Title(t *testing.T) {
	c := &Case{VehicleYear: 2019, VehicleMake: "Toyota", VehicleModel: "Corolla", Plate: "AB-123"}
	assert.Equal(t, "2019 Toyota Corolla (AB-123)", c.Title())
	c.Plate = ""
	assert.Equal(t, "2019 Toyota Corolla", c.Title())
}

func TestValue_Validate(t *testing.T) {
	require.NoError(t, SelectValue(1).Validate())
	require.NoError(t, TextValue("").Validate())
	require.NoError(t, NumberValue(3.5).Validate())
	require.NoError(t, BoolValue(false).Validate())

	require.ErrorIs(t, SelectValue(-1).Validate(), common.ErrInvalidValue)
	require.ErrorIs(t, NumberValue(math.NaN()).Validate(), common.ErrInvalidValue)
	require.ErrorIs(t, Value{Type: ValueText}.Validate(), common.ErrInvalidValue)
	require.ErrorIs(t, Value{Type: ValueText, Bool: ptr(true)}.Validate(), common.ErrValueTypeMismatch)

	two := TextValue("x")
	two.Bool = ptr(true)
	require.ErrorIs(t, two.Validate(), common.ErrInvalidValue)
}

func TestQuestion_Check(t *testing.T) {
	q, err := LookupQuestion("q_exterior_paint")
	require.NoError(t, err)

	require.NoError(t, q.Check(SelectValue(2)))
	require.ErrorIs(t, q.Check(SelectValue(3)), common.ErrInvalidValue)
	require.ErrorIs(t, q.Check(TextValue("good")), common.ErrValueTypeMismatch)

	_, err = LookupQuestion("q_nope")
	require.ErrorIs(t, err, common.ErrUnknownQuestion)
}

func TestParseValue(t *testing.T) {
	paint, _ := LookupQuestion("q_exterior_paint")
	tread, _ := LookupQuestion("q_tires_tread_depth")
	leaks, _ := LookupQuestion("q_engine_leaks")
	notes, _ := LookupQuestion("q_road_test_notes")

	v, err := ParseValue(paint, "Fair")
	require.NoError(t, err)
	assert.Equal(t, 1, *v.SelectIndex)
	assert.Equal(t, "fair", paint.Describe(v))

	v, err = ParseValue(paint, "2")
	require.NoError(t, err)
	assert.Equal(t, 2, *v.SelectIndex)

	_, err = ParseValue(paint, "shiny")
	require.ErrorIs(t, err, common.ErrInvalidValue)

	v, err = ParseValue(tread, "4.5")
	require.NoError(t, err)
	assert.Equal(t, 4.5, *v.Number)

	v, err = ParseValue(leaks, "no")
	require.NoError(t, err)
	assert.False(t, *v.Bool)

	_, err = ParseValue(leaks, "maybe")
	require.ErrorIs(t, err, common.ErrInvalidValue)

	v, err = ParseValue(notes, "  pulls left ")
	require.NoError(t, err)
	assert.Equal(t, "pulls left", *v.Text)
}

func TestChecklistAnswer_SetValueClearsOtherSlots(t *testing.T) {
	a := &ChecklistAnswer{}
	a.SetValue(TextValue("first"))
	a.SetValue(BoolValue(true))

	assert.Nil(t, a.TextValue)
	require.NotNil(t, a.BoolValue)
	assert.True(t, *a.BoolValue)
	assert.Equal(t, ValueBool, a.ValueType)
	require.NoError(t, a.Value().Validate())
}

func TestQuestions_SortedAndComplete(t *testing.T) {
	qs := Questions()
	require.Len(t, qs, len(catalog))
	for i := 1; i < len(qs); i++ {
		prev, cur := qs[i-1], qs[i]
		assert.True(t, prev.Category < cur.Category || (prev.Category == cur.Category && prev.Key < cur.Key))
	}
	for _, q := range qs {
		if q.Type == ValueSelect {
			assert.NotEmpty(t, q.Options, q.Key)
		}
	}
}

func TestMediaItem_ObjectPath(t *testing.T) {
	m := &MediaItem{ID: "m1", CaseID: "c1", Kind: MediaPhoto, LocalPath: "/data/media/m1.png"}
	assert.Equal(t, "cases/c1/m1.png", m.ObjectPath())

	m.LocalPath = ""
	assert.Equal(t, "cases/c1/m1.jpg", m.ObjectPath())

	m.Kind = MediaVideo
	assert.Equal(t, "cases/c1/m1.mp4", m.ObjectPath())

	m.RemotePath = "cases/c1/m1.mov"
	assert.Equal(t, "cases/c1/m1.mov", m.ObjectPath())
}

func TestMediaStatus_Terminal(t *testing.T) {
	assert.True(t, MediaErrorNoBlob.Terminal())
	assert.True(t, MediaErrorUpload.Terminal())
	assert.True(t, MediaErrorDelete.Terminal())
	assert.False(t, MediaPendingUpload.Terminal())
	assert.False(t, MediaSynced.Terminal())
}
