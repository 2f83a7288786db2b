package models

// Tier is a credit-quality band derived from the credit score. Bands are
// ordered BOIS < BRONZE < FER < CUIVRE < OR < PLATINE and gate the loan
// limit and interest rate a customer qualifies for.
type Tier string

const (
	TierBois    Tier = "BOIS"
	TierBronze  Tier = "BRONZE"
	TierFer     Tier = "FER"
	TierCuivre  Tier = "CUIVRE"
	TierOr      Tier = "OR"
	TierPlatine Tier = "PLATINE"
)

// MinLoanScore is the minimum credit score for loan eligibility.
const MinLoanScore = 250

// TierForScore maps a credit score to its band. Highest matching
// threshold wins.
func TierForScore(score int) Tier {
	switch {
	case score >= 900:
		return TierPlatine
	case score >= 750:
		return TierOr
	case score >= 600:
		return TierCuivre
	case score >= 450:
		return TierFer
	case score >= 300:
		return TierBronze
	default:
		return TierBois
	}
}

// LoanTerms are the borrowing conditions attached to a tier.
type LoanTerms struct {
	Limit      int64   `json:"limit"`      // maximum principal in FCFA
	AnnualRate float64 `json:"annualRate"` // percent per year
}

var loanTermsByTier = map[Tier]LoanTerms{
	TierBois:    {Limit: 25_000, AnnualRate: 4.5},
	TierBronze:  {Limit: 75_000, AnnualRate: 3.8},
	TierFer:     {Limit: 150_000, AnnualRate: 3.2},
	TierCuivre:  {Limit: 250_000, AnnualRate: 2.8},
	TierOr:      {Limit: 400_000, AnnualRate: 2.5},
	TierPlatine: {Limit: 750_000, AnnualRate: 2.0},
}

// LoanTerms returns the borrowing conditions for the tier. Unknown values
// fall back to the lowest band.
func (t Tier) LoanTerms() LoanTerms {
	if terms, ok := loanTermsByTier[t]; ok {
		return terms
	}
	return loanTermsByTier[TierBois]
}

// Valid reports whether t is one of the six known bands.
func (t Tier) Valid() bool {
	_, ok := loanTermsByTier[t]
	return ok
}
