package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"solana-launchpad/internal/domain"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse wraps every failure.
type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

// ErrorPayload describes a failure.
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// CampaignDTO is the wire form of a campaign. Amounts are decimal strings.
type CampaignDTO struct {
	ID              uint64          `json:"id"`
	State           string          `json:"state"`
	Phase           string          `json:"phase"`
	Beneficiary     domain.Address  `json:"beneficiary"`
	RewardAsset     domain.Address  `json:"reward_asset"`
	CollateralAsset domain.Address  `json:"collateral_asset"`
	CollateralRatio string          `json:"collateral_ratio"`
	BorrowRatio     string          `json:"borrow_ratio"`
	RewardSupply    string          `json:"reward_supply"`
	FundingCap      string          `json:"funding_cap"`
	Schedule        domain.Schedule `json:"schedule"`
	AuxParam        string          `json:"aux_param"`
	MinContribution string          `json:"min_contribution"`
	MaxContribution string          `json:"max_contribution"`
	FundingFloor    string          `json:"funding_floor"`

	Participants     int    `json:"participants"`
	TotalCollateral  string `json:"total_collateral"`
	RaisedCollateral string `json:"raised_collateral"`
	RewardEscrow     string `json:"reward_escrow"`
	RewardPaid       string `json:"reward_paid"`
	OutstandingDebt  string `json:"outstanding_debt"`
	Forfeited        string `json:"forfeited"`
	CreatedSlot      uint64 `json:"created_slot"`
}

// PositionDTO is the wire form of a position.
type PositionDTO struct {
	CampaignID  uint64         `json:"campaign_id"`
	Participant domain.Address `json:"participant"`
	Stage       string         `json:"stage"`
	Collateral  string         `json:"collateral"`
	Contributed string         `json:"contributed"`
	Debt        string         `json:"debt"`
	Advanced    string         `json:"advanced"`
	Forfeited   string         `json:"forfeited"`
	Rewarded    string         `json:"rewarded"`
	Exited      bool           `json:"exited"`
	Removed     bool           `json:"removed"`
	Claimed     bool           `json:"claimed"`
	Refunded    bool           `json:"refunded"`
}

// PhaseDTO reports a campaign phase at a slot.
type PhaseDTO struct {
	CampaignID uint64 `json:"campaign_id"`
	Slot       uint64 `json:"slot"`
	Phase      string `json:"phase"`
	FloorMet   bool   `json:"floor_met"`
	RefundOnly bool   `json:"refund_only"`
}

// WhitelistDTO reports whitelist membership.
type WhitelistDTO struct {
	CampaignID  uint64         `json:"campaign_id"`
	Address     domain.Address `json:"address"`
	Whitelisted bool           `json:"whitelisted"`
}

func campaignDTO(c *domain.Campaign, slot uint64) CampaignDTO {
	phase := string(domain.CampaignUnconfigured)
	if c.Configured() {
		phase = c.Schedule.PhaseAt(slot).String()
	}
	return CampaignDTO{
		ID:               c.ID,
		State:            string(c.State),
		Phase:            phase,
		Beneficiary:      c.Beneficiary,
		RewardAsset:      c.RewardAsset,
		CollateralAsset:  c.CollateralAsset,
		CollateralRatio:  str(c.CollateralRatio),
		BorrowRatio:      str(c.BorrowRatio),
		RewardSupply:     str(c.RewardSupply),
		FundingCap:       str(c.FundingCap),
		Schedule:         c.Schedule,
		AuxParam:         str(c.AuxParam),
		MinContribution:  str(c.MinContribution),
		MaxContribution:  str(c.MaxContribution),
		FundingFloor:     str(c.FundingFloor()),
		Participants:     c.Participants,
		TotalCollateral:  str(c.TotalCollateral),
		RaisedCollateral: str(c.RaisedCollateral),
		RewardEscrow:     str(c.RewardEscrow),
		RewardPaid:       str(c.RewardPaid),
		OutstandingDebt:  str(c.OutstandingDebt),
		Forfeited:        str(c.Forfeited),
		CreatedSlot:      c.CreatedSlot,
	}
}

func positionDTO(p *domain.Position) PositionDTO {
	return PositionDTO{
		CampaignID:  p.CampaignID,
		Participant: p.Participant,
		Stage:       p.Stage(),
		Collateral:  str(p.Collateral),
		Contributed: str(p.Contributed),
		Debt:        str(p.Debt),
		Advanced:    str(p.Advanced),
		Forfeited:   str(p.Forfeited),
		Rewarded:    str(p.Rewarded),
		Exited:      p.Exited,
		Removed:     p.Removed,
		Claimed:     p.Claimed,
		Refunded:    p.Refunded,
	}
}

func str(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, SuccessResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	writeJSON(w, status, ErrorResponse{Status: "error", Error: ErrorPayload{
		Code:      code,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

// errBadRequest marks malformed path or query parameters.
var errBadRequest = errors.New("bad request")

func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrUnknownCampaign):
		return http.StatusNotFound, "unknown_campaign"
	case errors.Is(err, domain.ErrNotJoined):
		return http.StatusNotFound, "not_joined"
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusConflict, "not_configured"
	default:
		return http.StatusInternalServerError, domain.ErrorKind(err)
	}
}
