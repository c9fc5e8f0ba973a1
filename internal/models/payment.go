package models

import "time"

// PaymentMethod enumerates how a payment was settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// Payment is a finance ledger entry tied to an incident.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	IncidentID  string        `db:"incident_id" json:"incident_id"`
	AmountCents int64         `db:"amount_cents" json:"amount_cents"`
	Currency    string        `db:"currency" json:"currency"`
	Method      PaymentMethod `db:"method" json:"method"`
	Reference   string        `db:"reference" json:"reference"`
	PaidAt      time.Time     `db:"paid_at" json:"paid_at"`
	RecordedBy  string        `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// PaymentFilter captures listing criteria for payments.
type PaymentFilter struct {
	IncidentID string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
