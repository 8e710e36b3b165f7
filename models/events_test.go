package models

import (
	// Go Internal Packages
	"fmt"
	"testing"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEvent = `{"txnId":"t1","sender":"+91-1","receiver":"+91-2","amount":"40",
	"transactionMethod":"BANK_TO_PERSON","txnStatus":"%s","failure":"%s","message":"%s"}`

func TestDecodeTransferEventNormalizesStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		failure     string
		message     string
		wantStatus  TxnStatus
		wantFailure Failure
		wantMessage string
	}{
		{"lower case success", "successful", "", "ok", Successful, NoFailure, "ok"},
		{"pending", "PENDING", "", "", Pending, NoFailure, ""},
		{"unclassified failure", "FAILED", "", "Insufficient Balance", Failed, PreCheck, "Insufficient Balance"},
		{"post debit failure", "FAILED", "POSTDEBIT", "Receiver Bank not found", Failed, PostDebit, "Receiver Bank not found"},
		{"unknown status", "LOST", "", "", Failed, PreCheck, "No details"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(fmt.Sprintf(validEvent, tt.status, tt.failure, tt.message))
			ev, err := DecodeTransferEvent(TopicUpdateTxnSender, data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, ev.TxnStatus)
			assert.Equal(t, tt.wantFailure, ev.Failure)
			assert.Equal(t, tt.wantMessage, ev.Message)
		})
	}
}

func TestDecodeTransferEventRejectsBadPayloads(t *testing.T) {
	payloads := map[string]string{
		"not json":        `{`,
		"missing txn id":  `{"sender":"+91-1","receiver":"+91-2","amount":"1","transactionMethod":"BANK_TO_PERSON"}`,
		"negative amount": `{"txnId":"t","sender":"+91-1","receiver":"+91-2","amount":"-1","transactionMethod":"BANK_TO_PERSON"}`,
		"unknown method":  `{"txnId":"t","sender":"+91-1","receiver":"+91-2","amount":"1","transactionMethod":"CASH"}`,
		"sub-cent amount": `{"txnId":"t","sender":"+91-1","receiver":"+91-2","amount":"0.004","transactionMethod":"BANK_TO_PERSON"}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTransferEvent(TopicBankToPerson, []byte(payload))
			assert.True(t, errors.Is(err, errors.ErrMalformedEvent))
		})
	}
}

func TestDecodeRegistrationEventNeedsPhone(t *testing.T) {
	_, err := DecodeRegistrationEvent(TopicUserRegistration, []byte(`{"userName":"asha"}`))
	assert.True(t, errors.Is(err, errors.ErrMalformedEvent))

	ev, err := DecodeRegistrationEvent(TopicUserRegistration, []byte(`{"phoneNumber":"+91-1","userName":"asha"}`))
	require.NoError(t, err)
	assert.Equal(t, "+91-1", ev.PhoneNumber)
}

func TestCreditRecordIDIsStable(t *testing.T) {
	assert.Equal(t, CreditRecordID("t1"), CreditRecordID("t1"))
	assert.NotEqual(t, CreditRecordID("t1"), CreditRecordID("t2"))
	assert.NotEqual(t, "t1", CreditRecordID("t1"))
	assert.Equal(t, "t1:REFUND", MutationKey("t1", RefundLeg))
}

func TestRoutes(t *testing.T) {
	r, ok := RouteFor(WalletToPerson)
	require.True(t, ok)
	assert.Equal(t, Wallet, r.Debits)
	assert.Equal(t, Bank, r.Credits)
	assert.False(t, r.SameCountry)
	assert.Equal(t, TopicUpdateBankTxn, r.Credits.CreditTopic())
	assert.Equal(t, TopicWalletAmount, r.Debits.RefundTopic())

	assert.ElementsMatch(t, []string{TopicBankToPerson, TopicBankToWallet}, AttemptTopics(Bank))
	assert.Equal(t, []string{TopicWalletToPerson}, AttemptTopics(Wallet))

	_, ok = RouteFor("CASH")
	assert.False(t, ok)
}

func TestExactAmount(t *testing.T) {
	for amount, want := range map[string]bool{"10": true, "10.5": true, "10.25": true, "10.250": true, "10.251": false, "0.004": false} {
		assert.Equal(t, want, ExactAmount(decimal.RequireFromString(amount)), amount)
	}
}

func TestParseLedgerKind(t *testing.T) {
	kind, ok := ParseLedgerKind("wallet")
	assert.True(t, ok)
	assert.Equal(t, Wallet, kind)

	kind, ok = ParseLedgerKind("BANK")
	assert.True(t, ok)
	assert.Equal(t, Bank, kind)

	_, ok = ParseLedgerKind("card")
	assert.False(t, ok)
}
