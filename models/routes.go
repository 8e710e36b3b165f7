package models

import (
	// Go Internal Packages
	"strings"
)

// Topic names are shared with the other e-wallet services and must not change.
const (
	TopicUserRegistration  = "user-registration"
	TopicBankToPerson      = "bank-to-person"
	TopicBankToWallet      = "bank-to-wallet"
	TopicWalletToPerson    = "wallet-to-person"
	TopicUpdateTxnSender   = "update-txn-sender"
	TopicUpdateTxnReceiver = "update-txn-receiver"
	TopicUpdateWalletTxn   = "update-wallet-txn"
	TopicUpdateBankTxn     = "update-bank-txn"
	TopicWalletAmount      = "update-wallet-amount"
	TopicBankAmount        = "update-bank-amount"
)

type LedgerKind string

const (
	Bank   LedgerKind = "BANK"
	Wallet LedgerKind = "WALLET"
)

// ParseLedgerKind accepts "bank" or "wallet" in any case.
func ParseLedgerKind(s string) (LedgerKind, bool) {
	switch k := LedgerKind(strings.ToUpper(s)); k {
	case Bank, Wallet:
		return k, true
	}
	return "", false
}

// CreditTopic is where credit requests for this ledger kind are published.
func (k LedgerKind) CreditTopic() string {
	if k == Wallet {
		return TopicUpdateWalletTxn
	}
	return TopicUpdateBankTxn
}

// RefundTopic is where compensation credit-backs for this ledger kind are published.
func (k LedgerKind) RefundTopic() string {
	if k == Wallet {
		return TopicWalletAmount
	}
	return TopicBankAmount
}

// Route describes how a transfer method moves money.
type Route struct {
	Method      TransactionMethod
	Topic       string
	Debits      LedgerKind
	Credits     LedgerKind
	SameCountry bool
}

var routes = map[TransactionMethod]Route{
	BankToPerson:   {Method: BankToPerson, Topic: TopicBankToPerson, Debits: Bank, Credits: Bank, SameCountry: true},
	BankToWallet:   {Method: BankToWallet, Topic: TopicBankToWallet, Debits: Bank, Credits: Wallet, SameCountry: true},
	WalletToPerson: {Method: WalletToPerson, Topic: TopicWalletToPerson, Debits: Wallet, Credits: Bank},
}

func RouteFor(method TransactionMethod) (Route, bool) {
	r, ok := routes[method]
	return r, ok
}

// AttemptTopics lists the attempt topics whose debit leg belongs to kind.
func AttemptTopics(kind LedgerKind) []string {
	var topics []string
	for _, m := range []TransactionMethod{BankToPerson, BankToWallet, WalletToPerson} {
		if r := routes[m]; r.Debits == kind {
			topics = append(topics, r.Topic)
		}
	}
	return topics
}
