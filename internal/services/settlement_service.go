package services

import (
	"encoding/xml"
	"fmt"
	"log"
	"time"

	"github.com/Asunoke/zayno/internal/models"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
)

const (
	settlementBIC      = "ZAYNMLBA"
	settlementCurrency = "XOF"
)

// SettlementService builds ISO 20022 payment messages for approved bank
// transfer payouts. A pacs.008 credit transfer carries the payout to the
// partner bank; the acknowledgement comes back as a pacs.002 status
// report.
type SettlementService struct{}

func NewSettlementService() *SettlementService {
	return &SettlementService{}
}

// SubmitPayout builds and dispatches the pacs.008 message for an approved
// withdrawal request.
func (s *SettlementService) SubmitPayout(request *models.WithdrawalRequest) error {
	doc, err := s.CreatePacs008(request)
	if err != nil {
		return err
	}
	return s.send(doc)
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message
// for the payout. Amounts are whole FCFA; XOF has no minor units.
func (s *SettlementService) CreatePacs008(request *models.WithdrawalRequest) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := time.Now()

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(settlementCurrency),
				Value: float64(request.Amount),
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(request.ID)}[0],
					EndToEndId: common.Max35Text(request.TransactionID),
					TxId:       &[]common.Max35Text{common.Max35Text(request.TransactionID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(settlementCurrency),
					Value: float64(request.Amount),
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(settlementBIC)}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(request.AccountID)}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						ClrSysMmbId: &pacs_v08.ClearingSystemMemberIdentification2{
							MmbId: common.Max35Text(string(request.Method)),
						},
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(request.Destination)}[0],
				},
			},
		},
	}

	return doc, nil
}

// CreatePacs002 creates a pacs.002 payment status report for a payout.
func (s *SettlementService) CreatePacs002(request *models.WithdrawalRequest, status string) (*pacs_v08.FIToFIPaymentStatusReportV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()

	doc := &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &[]common.Max35Text{common.Max35Text(request.ID)}[0],
				OrgnlEndToEndId: &[]common.Max35Text{common.Max35Text(request.TransactionID)}[0],
				OrgnlTxId:       &[]common.Max35Text{common.Max35Text(request.TransactionID)}[0],
				TxSts:           &[]pacs_v08.ExternalPaymentTransactionStatus1Code{pacs_v08.ExternalPaymentTransactionStatus1Code(status)}[0],
			},
		},
	}

	return doc, nil
}

// ConvertToXML converts an ISO 20022 document to an XML string.
func (s *SettlementService) ConvertToXML(doc interface{}) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}

func (s *SettlementService) send(doc interface{}) error {
	xmlData, err := s.ConvertToXML(doc)
	if err != nil {
		return err
	}

	// TODO: wire the partner bank SFTP drop once credentials land
	log.Printf("[SETTLEMENT] dispatching pacs.008 (%d bytes)", len(xmlData))
	return nil
}
