package donation

import (
	"time"
)

type PaymentStatus string

var (
	PaymentSuccess PaymentStatus = "Success"
	PaymentPending PaymentStatus = "Pending"
	PaymentFailed  PaymentStatus = "Failed"
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentSuccess, PaymentPending, PaymentFailed:
		return string(s)
	default:
		return ""
	}
}

// Transaction is one captured donation against an animal. UserID is nil for
// guest donations.
type Transaction struct {
	ID                 string        `gorm:"column:id;primaryKey"`
	UserID             *string       `gorm:"column:user_id;index"`
	AnimalID           string        `gorm:"column:animal_id;index;not null"`
	Amount             float64       `gorm:"column:amount;not null"`
	Type               string        `gorm:"column:type;default:'OneTime'"`
	PaymentProcessorID string        `gorm:"column:payment_processor_id"`
	PaymentStatus      PaymentStatus `gorm:"column:payment_status;not null;default:'Pending'"`
	DonorName          string        `gorm:"column:donor_name"`
	DonorEmail         string        `gorm:"column:donor_email"`
	TransactionDate    time.Time     `gorm:"column:transaction_date;autoCreateTime"`
}

func (Transaction) TableName() string {
	return "donation_transactions"
}
