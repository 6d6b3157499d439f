package allocation

import (
	"time"
)

type Category string

var (
	CategoryVet        Category = "Vet"
	CategoryMedication Category = "Medication"
	CategoryFood       Category = "Food"
	CategoryShelter    Category = "Shelter"
	CategoryOther      Category = "Other"
)

func (c Category) String() string {
	switch c {
	case CategoryVet, CategoryMedication, CategoryFood, CategoryShelter, CategoryOther:
		return string(c)
	default:
		return ""
	}
}

type FundingSource string

var (
	SourceNGOGrant         FundingSource = "NGO_Grant"
	SourceCorporateSponsor FundingSource = "Corporate_Sponsor"
	SourceGovernmentAid    FundingSource = "Government_Aid"
	SourceShelterReserve   FundingSource = "Shelter_Reserve"
	SourceOther            FundingSource = "Other"
)

func (s FundingSource) String() string {
	switch s {
	case SourceNGOGrant, SourceCorporateSponsor, SourceGovernmentAid, SourceShelterReserve, SourceOther:
		return string(s)
	default:
		return ""
	}
}

type Status string

var (
	StatusDraft     Status = "Draft"
	StatusVerified  Status = "Verified"
	StatusPublished Status = "Published"
)

func (s Status) String() string {
	switch s {
	case StatusDraft, StatusVerified, StatusPublished:
		return string(s)
	default:
		return ""
	}
}

// rank orders the forward-only lifecycle. Higher never goes back to lower.
func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 1
	case StatusVerified:
		return 2
	case StatusPublished:
		return 3
	default:
		return 0
	}
}

const (
	FundingFull    = "Fully Funded"
	FundingPartial = "Partially Funded"
)

// Epsilon absorbs floating-point drift on money comparisons.
const Epsilon = 0.01

// Allocation is one recorded expense against an archived animal's case,
// split between donation funds and external funding.
type Allocation struct {
	ID                    string         `gorm:"column:id;primaryKey"`
	AnimalID              string         `gorm:"column:animal_id;index;not null"`
	TransactionID         *string        `gorm:"column:transaction_id;index"`
	Category              Category       `gorm:"column:category;not null"`
	TotalCost             float64        `gorm:"column:total_cost;not null"`
	DonationCoveredAmount float64        `gorm:"column:donation_covered_amount;not null;default:0"`
	ExternalCoveredAmount float64        `gorm:"column:external_covered_amount;not null;default:0"`
	ExternalFundingSource *FundingSource `gorm:"column:external_funding_source"`
	ExternalFundingNotes  string         `gorm:"column:external_funding_notes"`
	FundingStatus         string         `gorm:"column:funding_status;not null"`
	Status                Status         `gorm:"column:status;not null;default:'Draft'"`
	ServiceProvider       string         `gorm:"column:service_provider"`
	PublicDescription     string         `gorm:"column:public_description"`
	InternalNotes         string         `gorm:"column:internal_notes"`
	ConditionUpdate       string         `gorm:"column:condition_update"`
	ReceiptImage          string         `gorm:"column:receipt_image"`
	TreatmentPhoto        string         `gorm:"column:treatment_photo"`
	AllocationDate        time.Time      `gorm:"column:allocation_date"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Allocation) TableName() string {
	return "fund_allocations"
}

// PublicView is the donor-facing projection of an allocation. Internal notes
// never leave the admin surface.
type PublicView struct {
	ID                string    `json:"allocationID"`
	AnimalID          string    `json:"animalID"`
	Category          Category  `json:"category"`
	TotalCost         float64   `json:"totalCost"`
	DonationCovered   float64   `json:"donationCovered"`
	ExternalCovered   float64   `json:"externalCovered"`
	FundingStatus     string    `json:"fundingStatus"`
	ServiceProvider   string    `json:"serviceProvider,omitempty"`
	PublicDescription string    `json:"publicDescription,omitempty"`
	ConditionUpdate   string    `json:"conditionUpdate,omitempty"`
	ReceiptImage      string    `json:"receiptImage,omitempty"`
	TreatmentPhoto    string    `json:"treatmentPhoto,omitempty"`
	AllocationDate    time.Time `json:"allocationDate"`
}

func (a *Allocation) Public() *PublicView {
	return &PublicView{
		ID:                a.ID,
		AnimalID:          a.AnimalID,
		Category:          a.Category,
		TotalCost:         a.TotalCost,
		DonationCovered:   a.DonationCoveredAmount,
		ExternalCovered:   a.ExternalCoveredAmount,
		FundingStatus:     a.FundingStatus,
		ServiceProvider:   a.ServiceProvider,
		PublicDescription: a.PublicDescription,
		ConditionUpdate:   a.ConditionUpdate,
		ReceiptImage:      a.ReceiptImage,
		TreatmentPhoto:    a.TreatmentPhoto,
		AllocationDate:    a.AllocationDate,
	}
}

// Summary is the per-animal funding picture used to gate which archived
// animals still have funds to allocate.
type Summary struct {
	FundingGoal    float64 `json:"fundingGoal"`
	AmountRaised   float64 `json:"amountRaised"`
	TotalAllocated float64 `json:"totalAllocated"`
	Remaining      float64 `json:"remaining"`
}

type FundingSplit struct {
	DonationCovered float64 `json:"donationCovered"`
	ExternalCovered float64 `json:"externalCovered"`
	FundingStatus   string  `json:"fundingStatus"`
}
