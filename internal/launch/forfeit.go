package launch

import (
	"math/big"

	"solana-launchpad/internal/domain"
)

// forfeitedCollateral returns the collateral withheld from a position that
// settles with outstanding debt: the debt valued through the collateral
// ratio (debt * 1e18 / collateralRatio), rounded up and capped at the
// position's collateral.
func forfeitedCollateral(c *domain.Campaign, collateral, debt *big.Int) *big.Int {
	if debt.Sign() == 0 {
		return new(big.Int)
	}
	f := domain.MulDivCeil(debt, domain.RatioScale, c.CollateralRatio)
	if f.Cmp(collateral) > 0 {
		f.Set(collateral)
	}
	return f
}
