package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-launchpad/internal/access"
	"solana-launchpad/internal/asset"
	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/eligibility"
	"solana-launchpad/internal/launch"
)

var (
	admin       = domain.Address{0x01}
	beneficiary = domain.Address{0x02}
	alice       = domain.Address{0x11}
	bob         = domain.Address{0x12}
	rewardMint  = domain.Address{0xA1}
	collMint    = domain.Address{0xC1}
	escrow      = domain.Address{0xEE}
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  ErrorPayload    `json:"error"`
}

// newServer builds an engine with one configured campaign that alice joined
// with 300 collateral, and a second campaign that is never configured.
func newServer(t *testing.T) (*httptest.Server, *clock.Manual) {
	t.Helper()
	ctx := context.Background()

	book := asset.NewBook()
	book.AddMinter(rewardMint, admin)
	book.AddMinter(collMint, admin)
	require.NoError(t, book.Mint(admin, rewardMint, admin, big.NewInt(20000)))
	book.Approve(admin, rewardMint, escrow, big.NewInt(20000))
	require.NoError(t, book.Mint(admin, collMint, alice, big.NewInt(1000)))
	book.Approve(alice, collMint, escrow, big.NewInt(1000))

	clk := clock.NewManual(10)
	engine, err := launch.New(launch.Options{
		Ledger:    asset.NewEscrow(book, escrow),
		Oracle:    eligibility.AllowAll{},
		Authority: access.NewAdmins(admin),
		Clock:     clk,
	})
	require.NoError(t, err)

	require.NoError(t, engine.ApproveCollateralAsset(ctx, admin, collMint))
	params := domain.CampaignParams{
		RewardAsset:     rewardMint,
		CollateralAsset: collMint,
		Beneficiary:     beneficiary,
		CollateralRatio: new(big.Int).Div(domain.RatioScale, big.NewInt(2)),
		BorrowRatio:     new(big.Int).Div(domain.RatioScale, big.NewInt(10)),
		RewardSupply:    big.NewInt(10000),
		FundingCap:      big.NewInt(10000),
	}
	id, err := engine.CreateCampaign(ctx, admin, params)
	require.NoError(t, err)
	_, err = engine.CreateCampaign(ctx, admin, params)
	require.NoError(t, err)

	require.NoError(t, engine.Configure(ctx, beneficiary, id,
		domain.Schedule{JoinStart: 100, AddStart: 200, BorrowStart: 300, ExitStart: 400},
		domain.ConfigureParams{AuxParam: big.NewInt(3), MinContribution: big.NewInt(10), MaxContribution: big.NewInt(0), Floor: big.NewInt(500)}))
	require.NoError(t, engine.AddToWhitelist(ctx, beneficiary, id, []domain.Address{alice}))

	clk.Set(100)
	require.NoError(t, engine.Join(ctx, alice, id, big.NewInt(300)))
	clk.Set(150)

	srv := httptest.NewServer(NewRouter(NewHandler(engine, clk)))
	t.Cleanup(srv.Close)
	return srv, clk
}

func get(t *testing.T, srv *httptest.Server, path string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	status, env := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)
}

func TestListCampaigns(t *testing.T) {
	srv, _ := newServer(t)
	status, env := get(t, srv, "/v1/campaigns")
	require.Equal(t, http.StatusOK, status)

	var campaigns []CampaignDTO
	require.NoError(t, json.Unmarshal(env.Data, &campaigns))
	require.Len(t, campaigns, 2)

	assert.Equal(t, "JOIN", campaigns[0].Phase)
	assert.Equal(t, "300", campaigns[0].TotalCollateral)
	assert.Equal(t, "500", campaigns[0].FundingFloor)
	assert.Equal(t, beneficiary, campaigns[0].Beneficiary)
	assert.Equal(t, "UNCONFIGURED", campaigns[1].Phase)
	assert.Equal(t, "UNCONFIGURED", campaigns[1].State)
}

func TestGetCampaign(t *testing.T) {
	srv, _ := newServer(t)

	t.Run("found", func(t *testing.T) {
		status, env := get(t, srv, "/v1/campaigns/0")
		require.Equal(t, http.StatusOK, status)
		var c CampaignDTO
		require.NoError(t, json.Unmarshal(env.Data, &c))
		assert.Equal(t, uint64(0), c.ID)
		assert.Equal(t, "10000", c.RewardEscrow)
		assert.Equal(t, uint64(400), c.Schedule.ExitStart)
	})

	t.Run("unknown", func(t *testing.T) {
		status, env := get(t, srv, "/v1/campaigns/99")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "unknown_campaign", env.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		status, env := get(t, srv, "/v1/campaigns/abc")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_input", env.Error.Code)
	})
}

func TestGetPhase(t *testing.T) {
	srv, clk := newServer(t)

	status, env := get(t, srv, "/v1/campaigns/0/phase")
	require.Equal(t, http.StatusOK, status)
	var p PhaseDTO
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "JOIN", p.Phase)
	assert.Equal(t, uint64(150), p.Slot)
	assert.False(t, p.RefundOnly)

	// Join window closed with 300 of a 500 floor.
	clk.Set(250)
	_, env = get(t, srv, "/v1/campaigns/0/phase")
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "ADD", p.Phase)
	assert.False(t, p.FloorMet)
	assert.True(t, p.RefundOnly)

	_, env = get(t, srv, "/v1/campaigns/0/phase?slot=450")
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "SETTLEMENT", p.Phase)

	status, env = get(t, srv, "/v1/campaigns/1/phase")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not_configured", env.Error.Code)

	status, _ = get(t, srv, "/v1/campaigns/0/phase?slot=-1")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPositions(t *testing.T) {
	srv, _ := newServer(t)

	status, env := get(t, srv, "/v1/campaigns/0/positions")
	require.Equal(t, http.StatusOK, status)
	var list []PositionDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, alice, list[0].Participant)
	assert.Equal(t, "ACTIVE", list[0].Stage)
	assert.Equal(t, "300", list[0].Collateral)

	status, env = get(t, srv, "/v1/campaigns/0/positions/"+alice.String())
	require.Equal(t, http.StatusOK, status)
	var p PositionDTO
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "300", p.Contributed)
	assert.Equal(t, "0", p.Debt)

	status, env = get(t, srv, "/v1/campaigns/0/positions/"+bob.String())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_joined", env.Error.Code)

	status, env = get(t, srv, "/v1/campaigns/0/positions/not-base58!")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", env.Error.Code)
}

func TestWhitelist(t *testing.T) {
	srv, _ := newServer(t)

	_, env := get(t, srv, "/v1/campaigns/0/whitelist")
	var list []domain.Address
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, []domain.Address{alice}, list)

	_, env = get(t, srv, "/v1/campaigns/1/whitelist")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)

	var w WhitelistDTO
	_, env = get(t, srv, "/v1/campaigns/0/whitelist/"+alice.String())
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.True(t, w.Whitelisted)

	_, env = get(t, srv, "/v1/campaigns/0/whitelist/"+bob.String())
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.False(t, w.Whitelisted)
}

func TestAssets(t *testing.T) {
	srv, _ := newServer(t)
	_, env := get(t, srv, "/v1/assets")
	var assets []domain.Address
	require.NoError(t, json.Unmarshal(env.Data, &assets))
	assert.Equal(t, []domain.Address{collMint}, assets)
}

func TestReport(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/v1/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	csvResp, err := http.Get(srv.URL + "/v1/report?format=csv")
	require.NoError(t, err)
	defer csvResp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(csvResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), alice.String())

	status, env := get(t, srv, "/v1/report?format=xml")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", env.Error.Code)
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
