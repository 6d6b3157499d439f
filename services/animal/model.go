package animal

import (
	"time"
)

type Status string

var (
	StatusActive   Status = "Active"
	StatusFunded   Status = "Funded"
	StatusAdopted  Status = "Adopted"
	StatusArchived Status = "Archived"
)

func (s Status) String() string {
	switch s {
	case StatusActive, StatusFunded, StatusAdopted, StatusArchived:
		return string(s)
	default:
		return ""
	}
}

type RecoveryStatus string

var (
	RecoveryUnderTreatment RecoveryStatus = "Under Treatment"
	RecoveryRecovering     RecoveryStatus = "Recovering"
	RecoveryFullyRecovered RecoveryStatus = "Fully Recovered"
	RecoveryAdopted        RecoveryStatus = "Adopted"
	RecoveryOther          RecoveryStatus = "Other"
)

func (s RecoveryStatus) String() string {
	switch s {
	case RecoveryUnderTreatment, RecoveryRecovering, RecoveryFullyRecovered, RecoveryAdopted, RecoveryOther:
		return string(s)
	default:
		return ""
	}
}

// Profile is a rescued animal's funding case.
type Profile struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Type         string    `gorm:"column:type"`
	PhotoURL     string    `gorm:"column:photo_url"`
	Story        string    `gorm:"column:story"`
	FundingGoal  float64   `gorm:"column:funding_goal;not null;default:0"`
	AmountRaised float64   `gorm:"column:amount_raised;not null;default:0"`
	Status       Status    `gorm:"column:status;not null;default:'Active'"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "animal_profiles"
}

// ProgressUpdate is a free-text medical/recovery note on an animal,
// optionally tied to the allocation that paid for the treatment.
type ProgressUpdate struct {
	ID               string         `gorm:"column:id;primaryKey"`
	AnimalID         string         `gorm:"column:animal_id;index;not null"`
	AllocationID     *string        `gorm:"column:allocation_id;index"`
	Title            string         `gorm:"column:title;not null"`
	Description      string         `gorm:"column:description"`
	MedicalCondition string         `gorm:"column:medical_condition"`
	RecoveryStatus   RecoveryStatus `gorm:"column:recovery_status;not null"`
	UpdateDate       time.Time      `gorm:"column:update_date"`
	CreatedBy        string         `gorm:"column:created_by"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProgressUpdate) TableName() string {
	return "animal_progress_updates"
}
