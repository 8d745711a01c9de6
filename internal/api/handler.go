package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/reporting"
)

// Viewer is the read side of the launch engine.
type Viewer interface {
	reporting.Viewer
	Campaign(id uint64) (*domain.Campaign, error)
	Position(id uint64, addr domain.Address) (*domain.Position, error)
	Whitelisted(id uint64, addr domain.Address) (bool, error)
	Whitelist(id uint64) ([]domain.Address, error)
	ApprovedAssets() []domain.Address
	CurrentPhase(id uint64, now uint64) (domain.Phase, error)
}

// Handler serves campaign views.
type Handler struct {
	view  Viewer
	clock clock.Clock
	gen   *reporting.Generator
}

// NewHandler creates a handler. Phases are evaluated at clk's slot unless
// a request passes ?slot=N.
func NewHandler(view Viewer, clk clock.Clock) *Handler {
	return &Handler{view: view, clock: clk, gen: reporting.NewGenerator(view)}
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.clock.Now(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Status: "error", Error: ErrorPayload{Code: "clock_unavailable", Message: err.Error()}})
		return
	}
	writeSuccess(w, http.StatusOK, "ready", map[string]uint64{"journal_seq": h.view.LastSeq()})
}

func (h *Handler) listAssets(w http.ResponseWriter, _ *http.Request) {
	assets := h.view.ApprovedAssets()
	if assets == nil {
		assets = []domain.Address{}
	}
	writeSuccess(w, http.StatusOK, "", assets)
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	campaigns := h.view.Campaigns()
	resp := make([]CampaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		resp = append(resp, campaignDTO(c, slot))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := h.slot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.view.Campaign(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", campaignDTO(c, slot))
}

func (h *Handler) getPhase(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := h.slot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	phase, err := h.view.CurrentPhase(id, slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.view.Campaign(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", PhaseDTO{
		CampaignID: id,
		Slot:       slot,
		Phase:      phase.String(),
		FloorMet:   c.FloorReached(),
		RefundOnly: c.FloorFailed(slot),
	})
}

func (h *Handler) listPositions(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	positions, err := h.view.Positions(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]PositionDTO, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, positionDTO(p))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (h *Handler) getPosition(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.view.Position(id, addr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", positionDTO(p))
}

func (h *Handler) listWhitelist(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.view.Whitelist(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	writeSuccess(w, http.StatusOK, "", list)
}

func (h *Handler) checkWhitelist(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.view.Whitelisted(id, addr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", WhitelistDTO{CampaignID: id, Address: addr, Whitelisted: ok})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slot(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.gen.Generate(slot)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(reporting.RenderMarkdown(rep)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(reporting.RenderCSV(rep.Positions)))
	case "json":
		writeSuccess(w, http.StatusOK, "", rep)
	default:
		writeError(w, r, fmt.Errorf("format %q: %w", format, errBadRequest))
	}
}

// slot returns ?slot=N if present, otherwise the clock's slot.
func (h *Handler) slot(r *http.Request) (uint64, error) {
	if raw := r.URL.Query().Get("slot"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("slot %q: %w", raw, errBadRequest)
		}
		return v, nil
	}
	return h.clock.Now(r.Context())
}

func campaignID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "campaign_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("campaign id %q: %w", raw, errBadRequest)
	}
	return id, nil
}
