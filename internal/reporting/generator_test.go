package reporting

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
	"solana-launchpad/internal/storage/memory"
)

var (
	alice = domain.Address{0x11}
	bob   = domain.Address{0x12}
)

// stubViewer serves fixed campaigns and positions.
type stubViewer struct {
	campaigns []*domain.Campaign
	positions map[uint64][]*domain.Position
	seq       uint64
	invariant error
}

func (v *stubViewer) Campaigns() []*domain.Campaign { return v.campaigns }
func (v *stubViewer) LastSeq() uint64               { return v.seq }
func (v *stubViewer) CheckInvariants() error        { return v.invariant }

func (v *stubViewer) Positions(id uint64) ([]*domain.Position, error) {
	return v.positions[id], nil
}

func amount(v int64) *big.Int { return big.NewInt(v) }

func setupViewer() *stubViewer {
	configured := &domain.Campaign{
		ID: 0,
		CampaignParams: domain.CampaignParams{
			Beneficiary:  domain.Address{0x02},
			RewardSupply: amount(10000),
			FundingCap:   amount(5000),
		},
		State:    domain.CampaignConfigured,
		Schedule: domain.Schedule{JoinStart: 100, AddStart: 200, BorrowStart: 300, ExitStart: 400},
		ConfigureParams: domain.ConfigureParams{
			AuxParam:        amount(9),
			MinContribution: amount(10),
			MaxContribution: amount(0),
			Floor:           amount(150),
		},
		TotalCollateral:  amount(179),
		RaisedCollateral: amount(179),
		RewardEscrow:     amount(9990),
		RewardPaid:       amount(0),
		OutstandingDebt:  amount(10),
		Forfeited:        amount(0),
		Participants:     2,
	}

	fresh := &domain.Campaign{
		ID: 1,
		CampaignParams: domain.CampaignParams{
			RewardSupply: amount(500),
			FundingCap:   amount(500),
		},
		State:            domain.CampaignUnconfigured,
		TotalCollateral:  amount(0),
		RaisedCollateral: amount(0),
		RewardEscrow:     amount(500),
		RewardPaid:       amount(0),
		OutstandingDebt:  amount(0),
		Forfeited:        amount(0),
	}

	pa := domain.NewPosition(0, alice)
	pa.Joined = true
	pa.Collateral.SetInt64(99)
	pa.Contributed.SetInt64(99)
	pa.Debt.SetInt64(10)

	pb := domain.NewPosition(0, bob)
	pb.Joined = true
	pb.Exited = true
	pb.Contributed.SetInt64(80)

	return &stubViewer{
		campaigns: []*domain.Campaign{configured, fresh},
		positions: map[uint64][]*domain.Position{0: {pa, pb}},
		seq:       12,
	}
}

func TestGenerator_Generate(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(setupViewer()).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(250)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixed)
	}
	if report.JournalSeq != 12 || report.Slot != 250 {
		t.Errorf("seq/slot = %d/%d", report.JournalSeq, report.Slot)
	}
	if len(report.Campaigns) != 2 {
		t.Fatalf("expected 2 campaign rows, got %d", len(report.Campaigns))
	}

	c := report.Campaigns[0]
	if c.Phase != "ADD" {
		t.Errorf("phase = %s, want ADD", c.Phase)
	}
	if !c.FloorMet {
		t.Error("179 >= 150 should meet the floor")
	}
	if c.AuxParam.Int64() != 9 {
		t.Errorf("aux param = %s", c.AuxParam)
	}

	u := report.Campaigns[1]
	if u.Phase != "UNCONFIGURED" || u.FloorMet {
		t.Errorf("unconfigured row = %+v", u)
	}
	if u.FundingFloor.Sign() != 0 {
		t.Errorf("unconfigured floor = %s", u.FundingFloor)
	}

	if len(report.Positions) != 2 {
		t.Fatalf("expected 2 position rows, got %d", len(report.Positions))
	}
	if report.Positions[0].Stage != "ACTIVE" || report.Positions[1].Stage != "EXITED" {
		t.Errorf("stages = %s, %s", report.Positions[0].Stage, report.Positions[1].Stage)
	}
	if !report.Integrity.Passed() {
		t.Errorf("integrity errors: %v", report.Integrity.Errors)
	}
}

func TestGenerator_IntegrityFailure(t *testing.T) {
	v := setupViewer()
	v.invariant = errors.New("campaign 0: collateral sum 1 != total 2")

	report, err := NewGenerator(v).Generate(500)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Integrity.Passed() {
		t.Fatal("expected integrity failure")
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "collateral sum 1 != total 2") {
		t.Error("markdown should list the invariant failure")
	}
}

func TestRenderMarkdown(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	report, err := NewGenerator(setupViewer()).WithClock(func() time.Time { return fixed }).Generate(450)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Launchpad Report",
		"2024-01-15T12:00:00Z",
		"Journal seq: 12",
		"**All ledger invariants hold.**",
		"| 0 | SETTLEMENT | 2 | 179 | 179 | 150 | yes | 5000 |",
		"| 1 | UNCONFIGURED | 0 |",
		"| 0 | " + alice.String() + " | ACTIVE | 99 | 99 | 10 | 0 | 0 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	empty := RenderMarkdown(&Report{GeneratedAt: fixed})
	if !strings.Contains(empty, "No campaigns.") || !strings.Contains(empty, "No integrity checks performed.") {
		t.Error("empty report should say so")
	}
}

func TestRenderCSV(t *testing.T) {
	report, err := NewGenerator(setupViewer()).Generate(450)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(RenderCSV(report.Positions)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "campaign_id,participant,stage,collateral,contributed,debt,forfeited,rewarded" {
		t.Errorf("header = %s", lines[0])
	}
	if lines[2] != "0,"+bob.String()+",EXITED,0,80,0,0,0" {
		t.Errorf("row = %s", lines[2])
	}

	campaigns := strings.Split(strings.TrimSpace(RenderCampaignCSV(report.Campaigns)), "\n")
	if len(campaigns) != 3 {
		t.Fatalf("expected header + 2 campaign rows, got %d", len(campaigns))
	}
	if !strings.HasPrefix(campaigns[1], "0,SETTLEMENT,CONFIGURED,2,179,179,150,true,5000,") {
		t.Errorf("campaign row = %s", campaigns[1])
	}
}

func TestSnapshotter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCampaignSummaryStore()
	fixed := time.UnixMilli(1700000000000)
	gen := NewGenerator(setupViewer()).WithClock(func() time.Time { return fixed })

	snap := NewSnapshotter(gen, store, clock.NewManual(320), nil)
	n, err := snap.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if n != 2 {
		t.Errorf("stored %d summaries, want 2", n)
	}

	latest, err := store.GetLatest(ctx, 0)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.Phase != "BORROW_REPAY" || latest.Slot != 320 || latest.SnapshotAt != 1700000000000 {
		t.Errorf("latest = %+v", latest)
	}
	if latest.Participants != 2 || latest.TotalCollateral.Int64() != 179 || !latest.FloorMet {
		t.Errorf("latest totals = %+v", latest)
	}

	// Same timestamp again violates the (campaign, snapshot_at) key
	if _, err := snap.Snapshot(ctx); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestRenderSummaryCSV(t *testing.T) {
	gen := NewGenerator(setupViewer()).WithClock(func() time.Time { return time.UnixMilli(1700000000000) })
	summaries := gen.Summaries(320)

	lines := strings.Split(strings.TrimSpace(RenderSummaryCSV(summaries)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "campaign_id,snapshot_at,slot,phase,") {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0,1700000000000,320,BORROW_REPAY,CONFIGURED,2,179,179,true,") {
		t.Errorf("row = %s", lines[1])
	}
}
