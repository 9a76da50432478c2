package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDisbursed Status = "disbursed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Loan rows are never deleted; rejected, defaulted and completed are archival states.
type Loan struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanNumber string `gorm:"size:16;not null;uniqueIndex:ux_loans_loan_number" json:"loan_number"`
	UserID     string `gorm:"size:32;not null;index:idx_loans_user_status,priority:1" json:"user_id"`
	LoanType   string `gorm:"size:32" json:"loan_type"`

	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"interest_rate"`
	TotalPayable     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_payable"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_paid"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"remaining_balance"`

	TermMonths        int       `gorm:"not null" json:"term_months"`
	TotalInstallments int       `gorm:"not null" json:"total_installments"`
	PaidInstallments  int       `gorm:"not null;default:0" json:"paid_installments"`
	PaymentFrequency  Frequency `gorm:"size:16;not null;default:'monthly'" json:"payment_frequency"`

	DisbursementDate time.Time `json:"disbursement_date"`
	FirstPaymentDate time.Time `json:"first_payment_date"`
	ExpectedEndDate  time.Time `json:"expected_end_date"`

	Status          Status    `gorm:"size:16;not null;default:'pending';index:idx_loans_user_status,priority:2" json:"status"`
	Purpose         string    `gorm:"size:255" json:"purpose"`
	Notes           string    `gorm:"type:text" json:"notes"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// History is the part of a borrower's record that gates new applications.
type History struct {
	HasDefaulted bool
	HasActive    bool
}

// OpenStatuses are the statuses counted as an active loan for eligibility.
var OpenStatuses = []Status{StatusPending, StatusApproved, StatusDisbursed, StatusActive}
