package credits

import (
	"math"
	"slices"

	"github.com/crossapp/crossapp-go/pkg/api"
)

// RankedPackage is a catalog entry annotated with its cost per credit.
type RankedPackage struct {
	api.CreditPackage
	CostPerCredit float64
}

// RankByCostPerCredit returns the catalog sorted by monthly price per
// credit, cheapest first. The sort is stable, so ties keep the server's
// original catalog order. The input slice is not modified.
func RankByCostPerCredit(packages []api.CreditPackage) []RankedPackage {
	ranked := make([]RankedPackage, 0, len(packages))
	for _, pkg := range packages {
		ranked = append(ranked, RankedPackage{
			CreditPackage: pkg,
			CostPerCredit: costPerCredit(pkg),
		})
	}

	slices.SortStableFunc(ranked, func(a, b RankedPackage) int {
		switch {
		case a.CostPerCredit < b.CostPerCredit:
			return -1
		case a.CostPerCredit > b.CostPerCredit:
			return 1
		default:
			return 0
		}
	})

	return ranked
}

// RecommendedPackage picks the package for a target credit amount: an
// exact credit_amount match if one exists, otherwise the smallest package
// covering the target, otherwise nil.
func RecommendedPackage(packages []api.CreditPackage, targetCredits float64) *api.CreditPackage {
	var best *api.CreditPackage
	for i := range packages {
		pkg := &packages[i]
		if pkg.CreditAmount == targetCredits {
			return pkg
		}
		if pkg.CreditAmount > targetCredits {
			if best == nil || pkg.CreditAmount < best.CreditAmount {
				best = pkg
			}
		}
	}
	return best
}

// costPerCredit guards against zero-credit catalog entries, which sort
// last rather than dividing by zero.
func costPerCredit(pkg api.CreditPackage) float64 {
	if pkg.CreditAmount <= 0 {
		return math.Inf(1)
	}
	return pkg.MonthlyPrice / pkg.CreditAmount
}
