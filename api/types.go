// Package api - request and response types for the billing, payout and
// tax-info endpoints. Calculation types from core/billing are used as-is.
package api

import (
	"reviewpay/core/billing"
	"reviewpay/db"
)

// CompareRequest is the input to POST /v1/billing/compare
type CompareRequest struct {
	RecruitCount         int64  `json:"recruit_count"`
	RewardPointPerPerson int64  `json:"reward_point_per_person"`
	AgencyFeePerPerson   *int64 `json:"agency_fee_per_person,omitempty"`
}

// PlatformsRequest is the input to POST /v1/billing/platforms
type PlatformsRequest struct {
	PaymentMethod billing.PaymentMethod   `json:"payment_method,omitempty"`
	Platforms     []billing.PlatformInput `json:"platforms"`
}

// RequiredGrossRequest is the input to POST /v1/payouts/required-gross
type RequiredGrossRequest struct {
	DesiredNet int64 `json:"desired_net"`
}

// RequiredGrossResponse pairs the gross amount with the payout it produces
type RequiredGrossResponse struct {
	DesiredNet  int64                `json:"desired_net"`
	GrossAmount int64                `json:"gross_amount"`
	Payout      billing.PayoutResult `json:"payout"`
}

// WithdrawalRequest is the input to POST /v1/payouts/withdrawal-check
type WithdrawalRequest struct {
	Amount           int64 `json:"amount"`
	AvailableBalance int64 `json:"available_balance"`
}

// WithdrawalResponse says whether a withdrawal may proceed and what it pays
type WithdrawalResponse struct {
	Allowed bool                  `json:"allowed"`
	Reason  string                `json:"reason,omitempty"`
	Payout  *billing.PayoutResult `json:"payout,omitempty"`
}

// TaxInfoRequest is the input to POST /v1/tax-info
type TaxInfoRequest struct {
	UserID    string `json:"user_id"`
	RRN       string `json:"rrn"`
	LegalName string `json:"legal_name"`
}

// TaxInfoResponse is the stored registration. The envelope and hash are
// never serialized.
type TaxInfoResponse = db.TaxInfoRecord

// ErrorBody is the error envelope of every failed request
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
