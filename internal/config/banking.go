package config

import (
	"time"

	"github.com/spf13/viper"
)

// BankingConfig groups the tunable business parameters of the engine.
type BankingConfig struct {
	// DepositExpiry is how long a pending deposit request stays
	// confirmable before it lapses.
	DepositExpiry time.Duration

	// MinWithdrawal is the smallest accepted withdrawal amount in FCFA.
	MinWithdrawal int64

	// QRCodeTTL bounds how long a receive-money QR payload stays valid.
	QRCodeTTL time.Duration

	// HistoryPageSize caps the transaction history returned per request.
	HistoryPageSize int
}

// GetBankingConfig returns banking parameters with defaults.
func GetBankingConfig() *BankingConfig {
	viper.SetDefault("banking.deposit_expiry", 50*time.Minute)
	viper.SetDefault("banking.min_withdrawal", 1000)
	viper.SetDefault("banking.qr_code_ttl", 5*time.Minute)
	viper.SetDefault("banking.history_page_size", 20)

	return &BankingConfig{
		DepositExpiry:   viper.GetDuration("banking.deposit_expiry"),
		MinWithdrawal:   viper.GetInt64("banking.min_withdrawal"),
		QRCodeTTL:       viper.GetDuration("banking.qr_code_ttl"),
		HistoryPageSize: viper.GetInt("banking.history_page_size"),
	}
}
