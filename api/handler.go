// Package api - HTTP handlers. Each handler decodes, delegates to the core
// and serializes; it contains NO billing logic.
package api

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"reviewpay/core/billing"
	"reviewpay/core/taxinfo"
	"reviewpay/db"
	"reviewpay/internal/errors"
)

// handleCampaign handles POST /v1/billing/campaign
func (s *Server) handleCampaign(w http.ResponseWriter, r *http.Request) {
	var req billing.CampaignInput
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.calc.CalculateCampaignBilling(req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.metrics.billedTotal.WithLabelValues(string(result.PaymentMethod)).Inc()
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("billing.payment_method", string(result.PaymentMethod)),
		attribute.Int64("billing.recruit_count", result.RecruitCount),
	)
	s.writeJSON(w, result, http.StatusOK)
}

// handleCompare handles POST /v1/billing/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.calc.CompareBillingByPaymentMethod(req.RecruitCount, req.RewardPointPerPerson, req.AgencyFeePerPerson)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handlePlatforms handles POST /v1/billing/platforms
func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	var req PlatformsRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.calc.CalculateCampaignBillingByPlatform(req.PaymentMethod, req.Platforms)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("billing.platform_count", len(result.Platforms)))
	s.writeJSON(w, result, http.StatusOK)
}

// handlePayout handles POST /v1/payouts/calculate
func (s *Server) handlePayout(w http.ResponseWriter, r *http.Request) {
	var req billing.PayoutInput
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.calc.CalculatePayout(req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleRequiredGross handles POST /v1/payouts/required-gross
func (s *Server) handleRequiredGross(w http.ResponseWriter, r *http.Request) {
	var req RequiredGrossRequest
	if !s.decode(w, r, &req) {
		return
	}
	gross, err := s.calc.CalculateRequiredGrossAmount(req.DesiredNet)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	payout, err := s.calc.CalculatePayout(billing.PayoutInput{GrossAmount: gross})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, RequiredGrossResponse{
		DesiredNet:  req.DesiredNet,
		GrossAmount: gross,
		Payout:      payout,
	}, http.StatusOK)
}

// handleWithdrawalCheck handles POST /v1/payouts/withdrawal-check. A refused
// withdrawal is a normal answer, not a request error.
func (s *Server) handleWithdrawalCheck(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.calc.ValidateWithdrawal(req.Amount, req.AvailableBalance); err != nil {
		if !errors.IsType(err, errors.TypeValidation) {
			s.writeFailure(w, r, err)
			return
		}
		var e *errors.Error
		stderrors.As(err, &e)
		s.writeJSON(w, WithdrawalResponse{Allowed: false, Reason: e.Message}, http.StatusOK)
		return
	}
	payout, err := s.calc.CalculatePayout(billing.PayoutInput{GrossAmount: req.Amount})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, WithdrawalResponse{Allowed: true, Payout: &payout}, http.StatusOK)
}

// handleTaxInfo handles POST /v1/tax-info. The RRN is processed immediately
// and only its envelope, hash and masked form are kept.
func (s *Server) handleTaxInfo(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.metrics.registrations.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", "1")
		s.writeError(w, r, "RATE_LIMITED", "too many tax information requests", http.StatusTooManyRequests)
		return
	}

	var req TaxInfoRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		s.metrics.registrations.WithLabelValues("invalid").Inc()
		s.writeFailure(w, r, errors.Validation("user_id is required"))
		return
	}

	result, err := s.taxInfo.ProcessTaxInfo(taxinfo.Input{RRN: req.RRN, LegalName: req.LegalName})
	if err != nil {
		s.metrics.registrations.WithLabelValues("invalid").Inc()
		s.writeFailure(w, r, err)
		return
	}

	if _, err := s.store.FindByHash(ctx, result.RRNHash); err == nil {
		s.metrics.registrations.WithLabelValues("duplicate").Inc()
		s.writeFailure(w, r, errors.Conflict("tax information is already registered", db.ErrDuplicate))
		return
	} else if !errors.IsType(err, errors.TypeNotFound) {
		s.writeFailure(w, r, err)
		return
	}

	record := db.NewRecord(userID, result, time.Now())
	if err := s.store.Save(ctx, record); err != nil {
		if errors.IsType(err, errors.TypeConflict) {
			s.metrics.registrations.WithLabelValues("duplicate").Inc()
		}
		s.writeFailure(w, r, err)
		return
	}

	s.metrics.registrations.WithLabelValues("created").Inc()
	s.logger.Info("tax info registered",
		zap.String("request_id", RequestID(ctx)),
		zap.String("tax_info_id", record.ID.String()),
		zap.String("masked_rrn", record.MaskedRRN),
	)
	s.writeJSON(w, record, http.StatusCreated)
}
