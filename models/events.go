package models

import (
	// Go Internal Packages
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Local Packages
	errors "e-wallet/errors"

	// External Packages
	"github.com/shopspring/decimal"
)

// TransferEvent is the flat payload exchanged on every transfer topic.
type TransferEvent struct {
	TxnID             string            `json:"txnId"`
	Sender            string            `json:"sender"`
	Receiver          string            `json:"receiver"`
	Amount            decimal.Decimal   `json:"amount"`
	DebitedAmount     decimal.Decimal   `json:"debitedAmount"`
	FromCurrency      string            `json:"fromCurrency"`
	ToCurrency        string            `json:"toCurrency"`
	TransactionMethod TransactionMethod `json:"transactionMethod"`
	TransactionType   TransactionType   `json:"transactionType,omitempty"`
	TxnStatus         TxnStatus         `json:"txnStatus"`
	Failure           Failure           `json:"failure,omitempty"`
	Leg               Leg               `json:"leg,omitempty"`
	Message           string            `json:"message"`
}

// WithStatus returns a copy of e stamped with the outcome of leg.
func (e TransferEvent) WithStatus(leg Leg, status TxnStatus, failure Failure, message string) TransferEvent {
	e.Leg = leg
	e.TxnStatus = status
	e.Failure = failure
	e.Message = message
	return e
}

// Validate checks the fields every handler relies on.
func (e *TransferEvent) Validate() error {
	ve := errors.ValidationErrs()
	if e.TxnID == "" {
		ve.Add("txnId", "cannot be empty")
	}
	if e.Sender == "" {
		ve.Add("sender", "cannot be empty")
	}
	if e.Receiver == "" {
		ve.Add("receiver", "cannot be empty")
	}
	if !e.Amount.IsPositive() {
		ve.Add("amount", "must be positive")
	}
	if !ExactAmount(e.Amount) {
		ve.Add("amount", fmt.Sprintf("must have at most %d decimal places", AmountPlaces))
	}
	if _, ok := RouteFor(e.TransactionMethod); !ok {
		ve.Add("transactionMethod", fmt.Sprintf("unknown method %q", e.TransactionMethod))
	}
	return ve.Err()
}

// Normalize maps legacy status payloads onto the current model. Unknown statuses are
// treated as failures, and a FAILED without a classification is a pre-check failure.
func (e *TransferEvent) Normalize() {
	e.TxnStatus = TxnStatus(strings.ToUpper(string(e.TxnStatus)))
	switch e.TxnStatus {
	case Pending, Successful:
	case Failed:
		if e.Failure == NoFailure {
			e.Failure = PreCheck
		}
	default:
		e.TxnStatus = Failed
		e.Failure = PreCheck
		if e.Message == "" {
			e.Message = "No details"
		}
	}
}

// DecodeTransferEvent parses and validates a transfer payload read from topic.
func DecodeTransferEvent(topic string, data []byte) (TransferEvent, error) {
	var ev TransferEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, errors.MalformedEventErr(topic, err)
	}
	if err := ev.Validate(); err != nil {
		return ev, errors.MalformedEventErr(topic, err)
	}
	ev.Normalize()
	return ev, nil
}

// RegistrationEvent is published by the user service when somebody signs up.
type RegistrationEvent struct {
	PhoneNumber string `json:"phoneNumber"`
	UserName    string `json:"userName"`
}

func DecodeRegistrationEvent(topic string, data []byte) (RegistrationEvent, error) {
	var ev RegistrationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, errors.MalformedEventErr(topic, err)
	}
	if ev.PhoneNumber == "" {
		return ev, errors.MalformedEventErr(topic, errors.EmptyParamErr("phoneNumber"))
	}
	return ev, nil
}

// AuditEntry is one line of a transaction's saga trail.
type AuditEntry struct {
	At        time.Time `json:"at"`
	Service   string    `json:"service"`
	Direction string    `json:"direction"`
	Topic     string    `json:"topic"`
	Leg       Leg       `json:"leg,omitempty"`
	Status    TxnStatus `json:"status,omitempty"`
	Failure   Failure   `json:"failure,omitempty"`
	Message   string    `json:"message,omitempty"`
}

const (
	Received = "received"
	Emitted  = "emitted"
	Ignored  = "ignored"
)
