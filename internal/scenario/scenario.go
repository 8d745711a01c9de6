// Package scenario loads YAML launch scenarios and plays them against an
// in-memory engine.
package scenario

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"solana-launchpad/internal/domain"
)

// ErrInvalidScenario is returned when a scenario file is malformed.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a complete bootstrap plus a list of timed operations.
type Scenario struct {
	Name      string `yaml:"name"`
	StartSlot uint64 `yaml:"start_slot"`
	// Escrow names the custody account. Defaults to "escrow".
	Escrow string `yaml:"escrow"`

	Admins           []string       `yaml:"admins"`
	Assets           []AssetSpec    `yaml:"assets"`
	Approvals        []Approval     `yaml:"approvals"`
	CollateralAssets []string       `yaml:"collateral_assets"`
	Lockup           *LockupSpec    `yaml:"lockup"`
	Campaigns        []CampaignSpec `yaml:"campaigns"`
	Steps            []Step         `yaml:"steps"`
}

// AssetSpec declares a mintable asset and its initial balances.
type AssetSpec struct {
	Name   string            `yaml:"name"`
	Minter string            `yaml:"minter"`
	Mints  map[string]Amount `yaml:"mints"`
}

// Approval lets Spender pull up to Amount of Asset from Owner. Spender
// defaults to the escrow account.
type Approval struct {
	Owner   string `yaml:"owner"`
	Asset   string `yaml:"asset"`
	Spender string `yaml:"spender"`
	Amount  Amount `yaml:"amount"`
}

// LockupSpec enables the stake-lock eligibility oracle. Without it every
// address is eligible.
type LockupSpec struct {
	Asset     string `yaml:"asset"`
	MinAmount Amount `yaml:"min_amount"`
	Period    uint64 `yaml:"period"`
}

// CampaignSpec creates, and optionally configures, one campaign.
type CampaignSpec struct {
	Name            string           `yaml:"name"`
	Creator         string           `yaml:"creator"`
	RewardAsset     string           `yaml:"reward_asset"`
	CollateralAsset string           `yaml:"collateral_asset"`
	Beneficiary     string           `yaml:"beneficiary"`
	CollateralRatio Ratio            `yaml:"collateral_ratio"`
	BorrowRatio     Ratio            `yaml:"borrow_ratio"`
	RewardSupply    Amount           `yaml:"reward_supply"`
	FundingCap      Amount           `yaml:"funding_cap"`
	Schedule        *domain.Schedule `yaml:"schedule"`
	Bounds          *Bounds          `yaml:"bounds"`
	Whitelist       []string         `yaml:"whitelist"`
}

// Bounds mirrors domain.ConfigureParams.
type Bounds struct {
	AuxParam        Amount `yaml:"aux_param"`
	MinContribution Amount `yaml:"min_contribution"`
	MaxContribution Amount `yaml:"max_contribution"`
	Floor           Amount `yaml:"floor"`
}

// Step is one operation executed once the clock reaches Slot.
type Step struct {
	Slot     uint64   `yaml:"slot"`
	Op       string   `yaml:"op"`
	Campaign string   `yaml:"campaign"`
	Caller   string   `yaml:"caller"`
	Amount   Amount   `yaml:"amount"`
	Accounts []string `yaml:"accounts"`
	// Expect is the error kind the step must fail with. Empty means success.
	Expect string `yaml:"expect"`
	// Returns is the amount a payout step must return, when set.
	Returns *Amount `yaml:"returns"`
}

// Step operations.
const (
	OpJoin           = "join"
	OpAdd            = "add"
	OpBorrow         = "borrow"
	OpRepay          = "repay"
	OpExit           = "exit"
	OpRemove         = "remove"
	OpReward         = "reward"
	OpRefund         = "refund"
	OpClaimForfeited = "claim_forfeited"
	OpWhitelist      = "whitelist"
	OpLock           = "lock"
	OpUnlock         = "unlock"
)

var knownOps = map[string]bool{
	OpJoin: true, OpAdd: true, OpBorrow: true, OpRepay: true, OpExit: true, OpRemove: true,
	OpReward: true, OpRefund: true, OpClaimForfeited: true, OpWhitelist: true, OpLock: true, OpUnlock: true,
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a scenario document. Unknown fields are rejected.
func Parse(raw []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if sc.Escrow == "" {
		sc.Escrow = "escrow"
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks cross references and step ordering.
func (sc *Scenario) Validate() error {
	var errs []error
	if len(sc.Admins) == 0 {
		errs = append(errs, errors.New("at least one admin is required"))
	}

	assets := make(map[string]bool)
	for _, a := range sc.Assets {
		if a.Name == "" || a.Minter == "" {
			errs = append(errs, fmt.Errorf("asset %q: name and minter are required", a.Name))
		}
		assets[a.Name] = true
	}
	for _, a := range sc.Approvals {
		if !assets[a.Asset] {
			errs = append(errs, fmt.Errorf("approval for %s: unknown asset %q", a.Owner, a.Asset))
		}
	}
	if sc.Lockup != nil && !assets[sc.Lockup.Asset] {
		errs = append(errs, fmt.Errorf("lockup: unknown asset %q", sc.Lockup.Asset))
	}

	campaigns := make(map[string]bool)
	for _, c := range sc.Campaigns {
		switch {
		case c.Name == "":
			errs = append(errs, errors.New("campaign without name"))
		case campaigns[c.Name]:
			errs = append(errs, fmt.Errorf("campaign %q declared twice", c.Name))
		}
		campaigns[c.Name] = true
		if c.Bounds != nil && c.Schedule == nil {
			errs = append(errs, fmt.Errorf("campaign %q: bounds without schedule", c.Name))
		}
	}

	var last uint64
	for i, s := range sc.Steps {
		if !knownOps[s.Op] {
			errs = append(errs, fmt.Errorf("step %d: unknown op %q", i, s.Op))
		}
		if s.Slot < last {
			errs = append(errs, fmt.Errorf("step %d: slot %d before previous step slot %d", i, s.Slot, last))
		}
		last = s.Slot
		if s.Op != OpLock && s.Op != OpUnlock && !campaigns[s.Campaign] {
			errs = append(errs, fmt.Errorf("step %d: unknown campaign %q", i, s.Campaign))
		}
		if s.Caller == "" {
			errs = append(errs, fmt.Errorf("step %d: caller is required", i))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}

// Account resolves a scenario name to an address. Strings that parse as
// base58 keys are used as is; any other name maps to a stable derived key.
func Account(name string) domain.Address {
	if addr, err := domain.ParseAddress(name); err == nil {
		return addr
	}
	return domain.Address(sha256.Sum256([]byte("launchpad-account:" + name)))
}

// Amount is a non-negative integer written either as a YAML int or a
// decimal string.
type Amount struct {
	v *big.Int
}

// NewAmount wraps v.
func NewAmount(v int64) Amount {
	return Amount{v: big.NewInt(v)}
}

// Int returns a copy of the value; unset amounts are zero.
func (a Amount) Int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

// IsSet reports whether the field was present.
func (a Amount) IsSet() bool { return a.v != nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, ok := new(big.Int).SetString(strings.ReplaceAll(node.Value, "_", ""), 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("line %d: invalid amount %q", node.Line, node.Value)
	}
	a.v = v
	return nil
}

// Ratio is a decimal fraction such as "0.5", stored in 1e18 fixed point.
type Ratio struct {
	v *big.Int
}

// Int returns the fixed-point value.
func (r Ratio) Int() *big.Int {
	if r.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(r.v)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Ratio) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: ratio must be a scalar", node.Line)
	}
	frac, ok := new(big.Rat).SetString(node.Value)
	if !ok || frac.Sign() < 0 {
		return fmt.Errorf("line %d: invalid ratio %q", node.Line, node.Value)
	}
	scaled := new(big.Rat).Mul(frac, new(big.Rat).SetInt(domain.RatioScale))
	if !scaled.IsInt() {
		return fmt.Errorf("line %d: ratio %q has more than 18 decimals", node.Line, node.Value)
	}
	r.v = new(big.Int).Set(scaled.Num())
	return nil
}
