package models

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/fieldsync/internal/common"
)

// Question is one entry of the inspection checklist.
type Question struct {
	Key      string
	Category string
	Label    string
	Type     ValueType
	Options  []string
}

// Checklist categories.
const (
	CategoryExterior   = "exterior"
	CategoryInterior   = "interior"
	CategoryMechanical = "mechanical"
	CategoryRoadTest   = "road_test"
	CategoryDocuments  = "documents"
)

var condition = []string{"good", "fair", "poor"}

var catalog = []Question{
	{Key: "q_exterior_paint", Category: CategoryExterior, Label: "Paint condition", Type: ValueSelect, Options: condition},
	{Key: "q_exterior_body_damage", Category: CategoryExterior, Label: "Visible body damage", Type: ValueBool},
	{Key: "q_exterior_glass", Category: CategoryExterior, Label: "Windshield and glass", Type: ValueSelect, Options: []string{"intact", "chipped", "cracked"}},
	{Key: "q_exterior_lights", Category: CategoryExterior, Label: "Lights working", Type: ValueBool},
	{Key: "q_tires_tread_depth", Category: CategoryExterior, Label: "Minimum tread depth (mm)", Type: ValueNumber},
	{Key: "q_interior_seats", Category: CategoryInterior, Label: "Seats and upholstery", Type: ValueSelect, Options: condition},
	{Key: "q_interior_dashboard_warnings", Category: CategoryInterior, Label: "Dashboard warning lights on", Type: ValueBool},
	{Key: "q_interior_odometer", Category: CategoryInterior, Label: "Odometer reading (km)", Type: ValueNumber},
	{Key: "q_interior_notes", Category: CategoryInterior, Label: "Interior remarks", Type: ValueText},
	{Key: "q_engine_start", Category: CategoryMechanical, Label: "Engine starts cleanly", Type: ValueBool},
	{Key: "q_engine_leaks", Category: CategoryMechanical, Label: "Fluid leaks", Type: ValueBool},
	{Key: "q_brakes", Category: CategoryMechanical, Label: "Brake condition", Type: ValueSelect, Options: condition},
	{Key: "q_road_test_notes", Category: CategoryRoadTest, Label: "Road test remarks", Type: ValueText},
	{Key: "q_documents_service_book", Category: CategoryDocuments, Label: "Service book present", Type: ValueBool},
}

var catalogByKey = func() map[string]Question {
	m := make(map[string]Question, len(catalog))
	for _, q := range catalog {
		m[q.Key] = q
	}
	return m
}()

// LookupQuestion returns the question for key.
func LookupQuestion(key string) (Question, error) {
	q, ok := catalogByKey[key]
	if !ok {
		return Question{}, fmt.Errorf("%q: %w", key, common.ErrUnknownQuestion)
	}
	return q, nil
}

// Questions lists the catalog ordered by category, then key.
func Questions() []Question {
	out := make([]Question, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Check validates v against the question's declared type and options.
func (q Question) Check(v Value) error {
	if v.Type != q.Type {
		return fmt.Errorf("%s expects %s, got %s: %w", q.Key, q.Type, v.Type, common.ErrValueTypeMismatch)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s: %w", q.Key, err)
	}
	if q.Type == ValueSelect && *v.SelectIndex >= len(q.Options) {
		return fmt.Errorf("%s has %d options, got index %d: %w", q.Key, len(q.Options), *v.SelectIndex, common.ErrInvalidValue)
	}
	return nil
}

// Describe renders v for display, resolving select indices to labels.
func (q Question) Describe(v Value) string {
	if q.Type == ValueSelect && v.SelectIndex != nil && *v.SelectIndex < len(q.Options) && *v.SelectIndex >= 0 {
		return q.Options[*v.SelectIndex]
	}
	return v.String()
}
