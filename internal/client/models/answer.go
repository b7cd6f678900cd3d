package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
)

// ValueType is the declared type of a checklist question.
type ValueType string

const (
	ValueSelect ValueType = "select"
	ValueText   ValueType = "text"
	ValueNumber ValueType = "number"
	ValueBool   ValueType = "bool"
)

// Value is a typed checklist answer. Exactly one slot matching Type is set.
type Value struct {
	Type        ValueType
	SelectIndex *int
	Text        *string
	Number      *float64
	Bool        *bool
}

func SelectValue(i int) Value     { return Value{Type: ValueSelect, SelectIndex: &i} }
func TextValue(s string) Value    { return Value{Type: ValueText, Text: &s} }
func NumberValue(f float64) Value { return Value{Type: ValueNumber, Number: &f} }
func BoolValue(b bool) Value      { return Value{Type: ValueBool, Bool: &b} }

// Validate checks that only the slot for Type is populated and that it holds
// a usable value.
func (v Value) Validate() error {
	set := 0
	for _, ok := range []bool{v.SelectIndex != nil, v.Text != nil, v.Number != nil, v.Bool != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected exactly one value slot, got %d: %w", set, common.ErrInvalidValue)
	}

	switch v.Type {
	case ValueSelect:
		if v.SelectIndex == nil {
			return common.ErrValueTypeMismatch
		}
		if *v.SelectIndex < 0 {
			return fmt.Errorf("select index %d: %w", *v.SelectIndex, common.ErrInvalidValue)
		}
	case ValueText:
		if v.Text == nil {
			return common.ErrValueTypeMismatch
		}
	case ValueNumber:
		if v.Number == nil {
			return common.ErrValueTypeMismatch
		}
		if math.IsNaN(*v.Number) || math.IsInf(*v.Number, 0) {
			return fmt.Errorf("number %v: %w", *v.Number, common.ErrInvalidValue)
		}
	case ValueBool:
		if v.Bool == nil {
			return common.ErrValueTypeMismatch
		}
	default:
		return fmt.Errorf("value type %q: %w", v.Type, common.ErrInvalidValue)
	}
	return nil
}

func (v Value) String() string {
	switch {
	case v.SelectIndex != nil:
		return strconv.Itoa(*v.SelectIndex)
	case v.Text != nil:
		return *v.Text
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	case v.Bool != nil:
		return strconv.FormatBool(*v.Bool)
	}
	return ""
}

// ParseValue converts user input into a Value of the given type.
// Select answers accept either the option index or its label.
func ParseValue(q Question, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch q.Type {
	case ValueSelect:
		for i, opt := range q.Options {
			if strings.EqualFold(opt, raw) {
				return SelectValue(i), nil
			}
		}
		i, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not an option of %s: %w", raw, q.Key, common.ErrInvalidValue)
		}
		return SelectValue(i), nil
	case ValueText:
		return TextValue(raw), nil
	case ValueNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q: %w", raw, common.ErrInvalidValue)
		}
		return NumberValue(f), nil
	case ValueBool:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1", "ok":
			return BoolValue(true), nil
		case "n", "no", "false", "0":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%q: %w", raw, common.ErrInvalidValue)
	}
	return Value{}, fmt.Errorf("value type %q: %w", q.Type, common.ErrInvalidValue)
}

// ChecklistAnswer is one answer to one question of a case.
// (CaseID, QuestionKey) is unique.
type ChecklistAnswer struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"case_id"`
	QuestionKey string    `json:"question_key"`
	Category    string    `json:"category"`
	ValueType   ValueType `json:"value_type"`

	SelectIndex *int     `json:"select_index"`
	TextValue   *string  `json:"text_value"`
	NumberValue *float64 `json:"number_value"`
	BoolValue   *bool    `json:"bool_value"`

	Note      string    `json:"note"`
	UpdatedAt time.Time `json:"updated_at"`

	IsSynced bool `json:"-"`
}

// SetValue replaces the populated slot with v, clearing the others.
func (a *ChecklistAnswer) SetValue(v Value) {
	a.ValueType = v.Type
	a.SelectIndex = v.SelectIndex
	a.TextValue = v.Text
	a.NumberValue = v.Number
	a.BoolValue = v.Bool
}

// Value returns the populated slot as a Value.
func (a *ChecklistAnswer) Value() Value {
	return Value{
		Type:        a.ValueType,
		SelectIndex: a.SelectIndex,
		Text:        a.TextValue,
		Number:      a.NumberValue,
		Bool:        a.BoolValue,
	}
}
