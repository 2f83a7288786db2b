package services

import (
	"strings"
	"testing"
	"time"

	"github.com/Asunoke/zayno/internal/models"
	"github.com/stretchr/testify/assert"
)

func payoutRequest() *models.WithdrawalRequest {
	return &models.WithdrawalRequest{
		ID:            "req1",
		AccountID:     "acc1",
		Amount:        250000,
		Method:        models.MethodBankTransfer,
		Destination:   "ML21 BIMA 0001 0002 0003",
		Status:        models.WithdrawalCompleted,
		TransactionID: "tx1",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestSettlementService_CreatePacs008(t *testing.T) {
	service := NewSettlementService()

	doc, err := service.CreatePacs008(payoutRequest())
	assert.NoError(t, err)
	assert.Equal(t, "1", string(doc.GrpHdr.NbOfTxs))
	assert.Equal(t, "XOF", string(doc.GrpHdr.TtlIntrBkSttlmAmt.Ccy))
	assert.Equal(t, float64(250000), doc.GrpHdr.TtlIntrBkSttlmAmt.Value)

	assert.Len(t, doc.CdtTrfTxInf, 1)
	transfer := doc.CdtTrfTxInf[0]
	assert.Equal(t, "tx1", string(transfer.PmtId.EndToEndId))
	assert.Equal(t, "req1", string(*transfer.PmtId.InstrId))
	assert.Equal(t, float64(250000), transfer.IntrBkSttlmAmt.Value)
	assert.Equal(t, "ML21 BIMA 0001 0002 0003", string(*transfer.Cdtr.Nm))
	assert.Equal(t, settlementBIC, string(*transfer.DbtrAgt.FinInstnId.BICFI))
}

func TestSettlementService_CreatePacs002(t *testing.T) {
	service := NewSettlementService()

	doc, err := service.CreatePacs002(payoutRequest(), "ACSC")
	assert.NoError(t, err)
	assert.Len(t, doc.TxInfAndSts, 1)
	assert.Equal(t, "tx1", string(*doc.TxInfAndSts[0].OrgnlTxId))
	assert.Equal(t, "ACSC", string(*doc.TxInfAndSts[0].TxSts))
}

func TestSettlementService_ConvertToXML(t *testing.T) {
	service := NewSettlementService()

	doc, err := service.CreatePacs008(payoutRequest())
	assert.NoError(t, err)

	xmlData, err := service.ConvertToXML(doc)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(xmlData, "<?xml"))
	assert.Contains(t, xmlData, "XOF")
	assert.Contains(t, xmlData, "tx1")
}

func TestSettlementService_SubmitPayout(t *testing.T) {
	service := NewSettlementService()
	assert.NoError(t, service.SubmitPayout(payoutRequest()))
}
