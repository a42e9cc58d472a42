package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillingStatus string

const (
	BillingDraft     BillingStatus = "draft"
	BillingSent      BillingStatus = "sent"
	BillingPaid      BillingStatus = "paid"
	BillingOverdue   BillingStatus = "overdue"
	BillingCancelled BillingStatus = "cancelled"
)

func (s BillingStatus) Valid() bool {
	switch s {
	case BillingDraft, BillingSent, BillingPaid, BillingOverdue, BillingCancelled:
		return true
	}
	return false
}

type CollectionStatus string

const (
	CollectionPaid          CollectionStatus = "paid"
	CollectionUnpaid        CollectionStatus = "unpaid"
	CollectionPartial       CollectionStatus = "partial"
	CollectionUncollectible CollectionStatus = "uncollectible"
)

func (s CollectionStatus) Valid() bool {
	switch s {
	case CollectionPaid, CollectionUnpaid, CollectionPartial, CollectionUncollectible:
		return true
	}
	return false
}

// Billing - an invoice sent to the client of a project
type Billing struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex;size:60;not null" json:"invoice_number"`
	ProjectID     uint            `gorm:"index;not null" json:"project_id"`
	Project       *Project        `json:"project,omitempty"`
	BillingDate   time.Time       `json:"billing_date"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Status        BillingStatus   `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Collections   []Collection    `gorm:"foreignKey:BillingID" json:"collections,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BillingTotal returns the explicit total when the caller supplied one, otherwise
// amount minus tax. The tax is withheld by the client, so it is subtracted.
func BillingTotal(amount, tax decimal.Decimal, explicit *decimal.Decimal) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	return amount.Sub(tax)
}

// Collected sums the amounts of the loaded collections.
func (b *Billing) Collected() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range b.Collections {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// FullyCollected is true once the collections cover the billing total.
func (b *Billing) FullyCollected() bool {
	return b.Collected().GreaterThanOrEqual(b.TotalAmount)
}

// Collection - a payment received against a billing
type Collection struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	CollectionNumber string           `gorm:"uniqueIndex;size:60;not null" json:"collection_number"`
	BillingID        uint             `gorm:"index;not null" json:"billing_id"`
	ProjectID        uint             `gorm:"index;not null" json:"project_id"` // copied from the billing
	Amount           decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status           CollectionStatus `gorm:"type:varchar(20);not null;default:'unpaid'" json:"status"`
	CollectionDate   time.Time        `json:"collection_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
