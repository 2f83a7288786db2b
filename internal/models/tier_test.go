package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{0, TierBois},
		{299, TierBois},
		{300, TierBronze},
		{449, TierBronze},
		{450, TierFer},
		{599, TierFer},
		{600, TierCuivre},
		{749, TierCuivre},
		{750, TierOr},
		{899, TierOr},
		{900, TierPlatine},
		{1000, TierPlatine},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %d", tt.score)
	}
}

func TestTierLoanTerms(t *testing.T) {
	tests := []struct {
		tier  Tier
		limit int64
		rate  float64
	}{
		{TierBois, 25000, 4.5},
		{TierBronze, 75000, 3.8},
		{TierFer, 150000, 3.2},
		{TierCuivre, 250000, 2.8},
		{TierOr, 400000, 2.5},
		{TierPlatine, 750000, 2.0},
	}

	for _, tt := range tests {
		terms := tt.tier.LoanTerms()
		assert.Equal(t, tt.limit, terms.Limit, "limit for %s", tt.tier)
		assert.Equal(t, tt.rate, terms.AnnualRate, "rate for %s", tt.tier)
	}
}

func TestTierLoanTerms_UnknownTierFallsBack(t *testing.T) {
	terms := Tier("MARBRE").LoanTerms()
	assert.Equal(t, TierBois.LoanTerms(), terms)
}

func TestTierOrdering(t *testing.T) {
	// A higher tier never carries a worse limit or rate than a lower one
	ladder := []Tier{TierBois, TierBronze, TierFer, TierCuivre, TierOr, TierPlatine}
	for i := 1; i < len(ladder); i++ {
		lower := ladder[i-1].LoanTerms()
		higher := ladder[i].LoanTerms()
		assert.Greater(t, higher.Limit, lower.Limit)
		assert.Less(t, higher.AnnualRate, lower.AnnualRate)
	}
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, MethodAgent.Valid())
	assert.True(t, MethodMobileMoney.Valid())
	assert.True(t, MethodBankTransfer.Valid())
	assert.False(t, PaymentMethod("CASH").Valid())
}
