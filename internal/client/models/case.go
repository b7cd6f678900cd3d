package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
)

// CaseStatus is the lifecycle of an inspection job.
type CaseStatus string

const (
	CaseAssigned   CaseStatus = "assigned"
	CaseInProgress CaseStatus = "in_progress"
	CaseInReview   CaseStatus = "in_review"
	CaseCompleted  CaseStatus = "completed"
	CaseCancelled  CaseStatus = "cancelled"
)

var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseAssigned:   {CaseInProgress, CaseCancelled},
	CaseInProgress: {CaseInReview, CaseCancelled},
	CaseInReview:   {CaseInProgress, CaseCompleted, CaseCancelled},
}

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseAssigned, CaseInProgress, CaseInReview, CaseCompleted, CaseCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a case may move from s to next.
// Staying in the same status is always allowed.
func (s CaseStatus) CanTransition(next CaseStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range caseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SyncStatus tracks whether a case has local changes the remote has not seen.
type SyncStatus string

const (
	SyncSynced        SyncStatus = "synced"
	SyncPendingUpdate SyncStatus = "pending_update"
	SyncPendingUpload SyncStatus = "pending_upload"
)

// Case is one vehicle inspection job.
type Case struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"client_id"`
	ReviewerID string     `json:"reviewer_id"`
	Status     CaseStatus `json:"status"`

	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`
	VehicleYear  int    `json:"vehicle_year"`
	VIN          string `json:"vin"`
	Plate        string `json:"plate"`
	Mileage      int    `json:"mileage"`
	Color        string `json:"color"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SyncStatus SyncStatus `json:"-"`
}

// Title is a short human label, e.g. "2019 Toyota Corolla (AB-123)".
func (c *Case) Title() string {
	t := fmt.Sprintf("%d %s %s", c.VehicleYear, c.VehicleMake, c.VehicleModel)
	if c.Plate != "" {
		t += " (" + c.Plate + ")"
	}
	return t
}

// CaseUpdate is a partial update; nil fields are left untouched.
type CaseUpdate struct {
	ClientID     *string
	ReviewerID   *string
	Status       *CaseStatus
	VehicleMake  *string
	VehicleModel *string
	VehicleYear  *int
	VIN          *string
	Plate        *string
	Mileage      *int
	Color        *string
}

// Empty reports whether the update carries no changes.
func (u CaseUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// Apply validates the update against c and writes the changed fields into it.
func (u CaseUpdate) Apply(c *Case) error {
	if u.Status != nil {
		if !u.Status.Valid() {
			return fmt.Errorf("status %q: %w", *u.Status, common.ErrInvalidValue)
		}
		if !c.Status.CanTransition(*u.Status) {
			return fmt.Errorf("%s -> %s: %w", c.Status, *u.Status, common.ErrInvalidTransition)
		}
		c.Status = *u.Status
	}
	if u.VehicleYear != nil && *u.VehicleYear < 0 {
		return fmt.Errorf("vehicle_year %d: %w", *u.VehicleYear, common.ErrInvalidValue)
	}
	if u.Mileage != nil && *u.Mileage < 0 {
		return fmt.Errorf("mileage %d: %w", *u.Mileage, common.ErrInvalidValue)
	}

	setString(&c.ClientID, u.ClientID)
	setString(&c.ReviewerID, u.ReviewerID)
	setString(&c.VehicleMake, u.VehicleMake)
	setString(&c.VehicleModel, u.VehicleModel)
	setString(&c.VIN, u.VIN)
	setString(&c.Plate, u.Plate)
	setString(&c.Color, u.Color)
	if u.VehicleYear != nil {
		c.VehicleYear = *u.VehicleYear
	}
	if u.Mileage != nil {
		c.Mileage = *u.Mileage
	}
	return nil
}

// Fields returns the changed columns keyed by their remote column name.
func (u CaseUpdate) Fields() map[string]any {
	f := map[string]any{}
	if u.ClientID != nil {
		f["client_id"] = *u.ClientID
	}
	if u.ReviewerID != nil {
		f["reviewer_id"] = *u.ReviewerID
	}
	if u.Status != nil {
		f["status"] = string(*u.Status)
	}
	if u.VehicleMake != nil {
		f["vehicle_make"] = *u.VehicleMake
	}
	if u.VehicleModel != nil {
		f["vehicle_model"] = *u.VehicleModel
	}
	if u.VehicleYear != nil {
		f["vehicle_year"] = *u.VehicleYear
	}
	if u.VIN != nil {
		f["vin"] = *u.VIN
	}
	if u.Plate != nil {
		f["plate"] = *u.Plate
	}
	if u.Mileage != nil {
		f["mileage"] = *u.Mileage
	}
	if u.Color != nil {
		f["color"] = *u.Color
	}
	return f
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
