package reward

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

type ItemStatus string

var (
	ItemActive   ItemStatus = "Active"
	ItemArchived ItemStatus = "Archived"
)

func (s ItemStatus) String() string {
	switch s {
	case ItemActive, ItemArchived:
		return string(s)
	default:
		return ""
	}
}

type EntryType string

var (
	EntryEarn   EntryType = "EARN"
	EntrySpend  EntryType = "SPEND"
	EntryAdjust EntryType = "ADJUST"
)

func (t EntryType) String() string {
	switch t {
	case EntryEarn, EntrySpend, EntryAdjust:
		return string(t)
	default:
		return ""
	}
}

type RedemptionStatus string

var (
	RedemptionActive  RedemptionStatus = "Active"
	RedemptionUsed    RedemptionStatus = "Used"
	RedemptionExpired RedemptionStatus = "Expired"
)

func (s RedemptionStatus) String() string {
	switch s {
	case RedemptionActive, RedemptionUsed, RedemptionExpired:
		return string(s)
	default:
		return ""
	}
}

// Item is a catalog entry. Quantity nil means unlimited stock.
type Item struct {
	ID             string     `gorm:"column:id;primaryKey"`
	Title          string     `gorm:"column:title;not null"`
	PartnerName    string     `gorm:"column:partner_name;not null"`
	Category       string     `gorm:"column:category"`
	Description    string     `gorm:"column:description"`
	ImageURL       string     `gorm:"column:image_url"`
	PointsRequired int64      `gorm:"column:points_required;not null"`
	ValidityMonths int        `gorm:"column:validity_months;not null;default:12"`
	Terms          string     `gorm:"column:terms"`
	Quantity       *int64     `gorm:"column:quantity"`
	Status         ItemStatus `gorm:"column:status;not null;default:'Active'"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string {
	return "reward_items"
}

// LedgerEntry is an append-only point movement. Expired EARN/ADJUST entries
// stop counting toward the balance; SPEND entries always count.
type LedgerEntry struct {
	ID          string     `gorm:"column:id;primaryKey"`
	UserID      string     `gorm:"column:user_id;index;not null"`
	Points      int64      `gorm:"column:points;not null"`
	Type        EntryType  `gorm:"column:type;not null"`
	Source      string     `gorm:"column:source"`
	ReferenceID *string    `gorm:"column:reference_id"`
	ExpiryDate  *time.Time `gorm:"column:expiry_date"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string {
	return "reward_point_ledger"
}

// NewEarnEntry builds an EARN row expiring validityMonths from now.
func NewEarnEntry(id, userID string, points int64, source, referenceID string, validityMonths int) *LedgerEntry {
	expiry := time.Now().AddDate(0, validityMonths, 0)
	entry := &LedgerEntry{
		ID:         id,
		UserID:     userID,
		Points:     points,
		Type:       EntryEarn,
		Source:     source,
		ExpiryDate: &expiry,
	}
	if referenceID != "" {
		entry.ReferenceID = &referenceID
	}
	return entry
}

// Redemption snapshots the reward at redemption time so later catalog edits
// never rewrite history.
type Redemption struct {
	ID          string           `gorm:"column:id;primaryKey"`
	UserID      string           `gorm:"column:user_id;index;not null"`
	RewardID    string           `gorm:"column:reward_id;index;not null"`
	RewardTitle string           `gorm:"column:reward_title;not null"`
	PartnerName string           `gorm:"column:partner_name"`
	PointsSpent int64            `gorm:"column:points_spent;not null"`
	VoucherCode string           `gorm:"column:voucher_code;uniqueIndex;not null"`
	ExpiryDate  time.Time        `gorm:"column:expiry_date"`
	Status      RedemptionStatus `gorm:"column:status;not null;default:'Active'"`
	RedeemedAt  time.Time        `gorm:"column:redeemed_at;autoCreateTime"`
}

func (Redemption) TableName() string {
	return "redemption_records"
}

// GenerateVoucherCode builds a collision-resistant code carrying the user id,
// a millisecond timestamp and a random suffix.
func GenerateVoucherCode(userID string) (string, error) {
	r := make([]byte, 3)
	if _, err := rand.Read(r); err != nil {
		return "", err
	}
	randomPart := strings.ToUpper(fmt.Sprintf("%x", r))

	return fmt.Sprintf("REW-%s-%d-%s", userID, time.Now().UnixMilli(), randomPart), nil
}

type Balance struct {
	Balance     int64 `json:"balance"`
	TotalEarned int64 `json:"totalEarned"`
	TotalSpent  int64 `json:"totalSpent"`
}
