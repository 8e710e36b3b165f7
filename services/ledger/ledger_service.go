package ledger

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strings"
	"time"

	// Local Packages
	errors "e-wallet/errors"
	helpers "e-wallet/helpers"
	models "e-wallet/models"
	utils "e-wallet/utils"

	// External Packages
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	CreateAccount(ctx context.Context, acc models.Account) (bool, error)
	FindAccount(ctx context.Context, owner string) (models.Account, error)
	Debit(ctx context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error)
	Credit(ctx context.Context, owner string, amount decimal.Decimal, key string) (models.Account, error)
	Reject(ctx context.Context, owner, key, message string) (models.Mutation, error)
	Mutation(ctx context.Context, owner, key string) (models.Mutation, bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type CurrencyTable interface {
	CurrencyFor(phone string) string
}

type AuditTrail interface {
	Append(ctx context.Context, txnID string, entry models.AuditEntry) error
}

// Deps are the collaborators of a ledger Service.
type Deps struct {
	Repo       Repository
	Publisher  Publisher
	Converter  Converter
	Currencies CurrencyTable
	Audit      AuditTrail
}

// Service is one ledger participant of the transfer saga (the bank or the wallet).
// It debits its own accounts for the methods it owns, credits them on request and
// credits them back when a transfer is compensated.
type Service struct {
	Kind           models.LedgerKind
	InitialBalance decimal.Decimal
	Deps
	Logger *zap.Logger
}

func NewService(kind models.LedgerKind, initialBalance decimal.Decimal, deps Deps, logger *zap.Logger) *Service {
	return &Service{
		Kind:           kind,
		InitialBalance: initialBalance,
		Deps:           deps,
		Logger:         logger.With(zap.String("ledger", string(kind))),
	}
}

const (
	msgCrossBorder  = "You Can't Make International Payment Through Bank"
	msgInsufficient = "Insufficient Balance"
	msgConversion   = "Currency conversion failed"
	msgTooSmall     = "Amount too small to convert"
	msgReversed     = "Amount credited back"
	msgDebited      = "Amount debited"
	msgSuccessful   = "Transaction Successful"
)

// label is "Bank" or "Wallet", used in user facing messages.
func (s *Service) label() string {
	k := strings.ToLower(string(s.Kind))
	return strings.ToUpper(k[:1]) + k[1:]
}

// Topics lists every topic this participant consumes.
func (s *Service) Topics() []string {
	topics := []string{models.TopicUserRegistration}
	topics = append(topics, models.AttemptTopics(s.Kind)...)
	return append(topics, s.Kind.CreditTopic(), s.Kind.RefundTopic())
}

// Handlers maps each consumed topic to its handler.
func (s *Service) Handlers() map[string]func(context.Context, models.Record) error {
	h := map[string]func(context.Context, models.Record) error{
		models.TopicUserRegistration: s.HandleRegistration,
		s.Kind.CreditTopic():         s.HandleCredit,
		s.Kind.RefundTopic():         s.HandleRefund,
	}
	for _, topic := range models.AttemptTopics(s.Kind) {
		h[topic] = s.HandleTransfer
	}
	return h
}

// HandleRegistration opens an account for a newly registered user. Replays are no-ops.
func (s *Service) HandleRegistration(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeRegistrationEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	acc := models.Account{
		PhoneNumber:   ev.PhoneNumber,
		AccountNumber: utils.NewID(),
		UserName:      ev.UserName,
		Kind:          s.Kind,
		Balance:       s.InitialBalance,
		Currency:      s.Currencies.CurrencyFor(ev.PhoneNumber),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := s.Repo.CreateAccount(ctx, acc)
	if err != nil {
		return err
	}
	if !created {
		s.Logger.Debug("account already exists", zap.String("owner", ev.PhoneNumber))
		return nil
	}
	s.Logger.Info("account created",
		zap.String("owner", acc.PhoneNumber),
		zap.String("currency", acc.Currency),
		zap.String("balance", acc.Balance.String()))
	return nil
}

// HandleTransfer runs the debit leg of a transfer whose sender holds an account here.
func (s *Service) HandleTransfer(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeTransferEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}
	route, _ := models.RouteFor(ev.TransactionMethod)
	if route.Debits != s.Kind || route.Topic != record.Topic {
		return errors.MalformedEventErr(record.Topic, fmt.Errorf("method %s is not debited by %s", ev.TransactionMethod, s.Kind))
	}
	s.trace(ctx, ev, models.Received, record.Topic)
	logger := s.Logger.With(zap.String("txn_id", ev.TxnID))

	key := models.MutationKey(ev.TxnID, models.DebitLeg)

	// Bank rails never cross borders; this needs no ledger read.
	if route.SameCountry && !helpers.SameCountry(ev.Sender, ev.Receiver) {
		logger.Warn("cross-border transfer rejected", zap.String("sender", ev.Sender), zap.String("receiver", ev.Receiver))
		return s.failPreCheck(ctx, ev, msgCrossBorder)
	}

	// A redelivered attempt repeats the first decision, whatever the balances are now.
	m, done, err := s.Repo.Mutation(ctx, ev.Sender, key)
	if err != nil {
		return err
	}
	if done {
		logger.Debug("debit already decided, replaying outcome", zap.Bool("rejected", m.Rejected))
		return s.replayDebit(ctx, ev, route, m)
	}

	sender, err := s.Repo.FindAccount(ctx, ev.Sender)
	if errors.Is(err, errors.ErrAccountNotFound) {
		logger.Warn("sender account not found", zap.String("sender", ev.Sender))
		return s.reject(ctx, ev, route, fmt.Sprintf("Sender %s not found", s.label()))
	}
	if err != nil {
		return err
	}

	amount := ev.Amount
	if !route.SameCountry {
		// The quoted amount is in the receiver's currency.
		quoted := s.Currencies.CurrencyFor(ev.Receiver)
		amount, err = s.Converter.Convert(ctx, ev.Amount, quoted, sender.Currency)
		if err != nil {
			logger.Warn("currency conversion failed", zap.Error(err))
			return s.reject(ctx, ev, route, msgConversion)
		}
		if !amount.IsPositive() {
			logger.Warn("converted amount rounds to nothing",
				zap.String("quoted", ev.Amount.String()), zap.String("converted", amount.String()))
			return s.reject(ctx, ev, route, msgTooSmall)
		}
	}

	if sender.Balance.LessThan(amount) {
		logger.Warn("insufficient balance",
			zap.String("sender", ev.Sender),
			zap.String("deficit", amount.Sub(sender.Balance).String()))
		return s.reject(ctx, ev, route, msgInsufficient)
	}

	_, err = s.Repo.Debit(ctx, ev.Sender, amount, key)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrInsufficientFunds):
		// a concurrent debit won the race for the balance
		logger.Warn("insufficient balance at debit", zap.Error(err))
		return s.reject(ctx, ev, route, msgInsufficient)
	case errors.Is(err, errors.ErrDuplicateDelivery):
		m, _, err := s.Repo.Mutation(ctx, ev.Sender, key)
		if err != nil {
			return err
		}
		return s.replayDebit(ctx, ev, route, m)
	default:
		return err
	}

	logger.Info("sender debited", zap.String("sender", ev.Sender), zap.String("amount", amount.String()))
	return s.afterDebit(ctx, ev, route, amount)
}

// reject records the refusal of the debit before reporting it. If the key was decided
// meanwhile, the recorded decision is reported instead.
func (s *Service) reject(ctx context.Context, ev models.TransferEvent, route models.Route, message string) error {
	m, err := s.Repo.Reject(ctx, ev.Sender, models.MutationKey(ev.TxnID, models.DebitLeg), message)
	if err != nil {
		return err
	}
	return s.replayDebit(ctx, ev, route, m)
}

// replayDebit reports a debit decision that is already recorded.
func (s *Service) replayDebit(ctx context.Context, ev models.TransferEvent, route models.Route, m models.Mutation) error {
	if m.Rejected {
		return s.failPreCheck(ctx, ev, m.Message)
	}

	// Once the sender got the money back the credit must never be requested again.
	_, refunded, err := s.Repo.Mutation(ctx, ev.Sender, models.MutationKey(ev.TxnID, models.RefundLeg))
	if err != nil {
		return err
	}
	if refunded {
		ev.DebitedAmount = m.Amount
		ev.TransactionType = models.Debit
		out := ev.WithStatus(models.DebitLeg, models.Failed, models.PostDebit, msgReversed)
		return s.emit(ctx, models.TopicUpdateTxnSender, out)
	}
	return s.afterDebit(ctx, ev, route, m.Amount)
}

// afterDebit is only reached once the debit is committed. It asks the receiving ledger
// for the credit first, then reports progress to the coordinator.
func (s *Service) afterDebit(ctx context.Context, ev models.TransferEvent, route models.Route, debited decimal.Decimal) error {
	ev.DebitedAmount = debited
	ev.TransactionType = models.Debit
	out := ev.WithStatus(models.DebitLeg, models.Successful, models.NoFailure, msgDebited)

	if err := s.emit(ctx, route.Credits.CreditTopic(), out); err != nil {
		return err
	}
	return s.emit(ctx, models.TopicUpdateTxnSender, out)
}

// HandleCredit runs the credit leg for a receiver holding an account here. A receiver
// that is missing on first delivery stays refused for this transaction.
func (s *Service) HandleCredit(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeTransferEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}
	route, _ := models.RouteFor(ev.TransactionMethod)
	if route.Credits != s.Kind {
		return errors.MalformedEventErr(record.Topic, fmt.Errorf("method %s is not credited by %s", ev.TransactionMethod, s.Kind))
	}
	s.trace(ctx, ev, models.Received, record.Topic)
	logger := s.Logger.With(zap.String("txn_id", ev.TxnID))
	key := models.MutationKey(ev.TxnID, models.CreditLeg)

	_, err = s.Repo.Credit(ctx, ev.Receiver, ev.Amount, key)
	switch {
	case err == nil:
		logger.Info("receiver credited", zap.String("receiver", ev.Receiver), zap.String("amount", ev.Amount.String()))
		return s.creditSucceeded(ctx, ev)
	case errors.Is(err, errors.ErrDuplicateDelivery):
		m, _, err := s.Repo.Mutation(ctx, ev.Receiver, key)
		if err != nil {
			return err
		}
		logger.Debug("credit already decided, replaying status", zap.Bool("rejected", m.Rejected))
		return s.replayCredit(ctx, ev, m)
	case errors.Is(err, errors.ErrAccountNotFound):
		logger.Warn("receiver account not found", zap.String("receiver", ev.Receiver))
		m, err := s.Repo.Reject(ctx, ev.Receiver, key, fmt.Sprintf("Receiver %s not found", s.label()))
		if err != nil {
			return err
		}
		return s.replayCredit(ctx, ev, m)
	default:
		return err
	}
}

func (s *Service) replayCredit(ctx context.Context, ev models.TransferEvent, m models.Mutation) error {
	if m.Rejected {
		out := ev.WithStatus(models.CreditLeg, models.Failed, models.PostDebit, m.Message)
		return s.emit(ctx, models.TopicUpdateTxnSender, out)
	}
	return s.creditSucceeded(ctx, ev)
}

func (s *Service) creditSucceeded(ctx context.Context, ev models.TransferEvent) error {
	out := ev.WithStatus(models.CreditLeg, models.Successful, models.NoFailure, msgSuccessful)
	if err := s.emit(ctx, models.TopicUpdateTxnSender, out); err != nil {
		return err
	}
	return s.emit(ctx, models.TopicUpdateTxnReceiver, out)
}

// HandleRefund credits the sender back what the debit leg took.
func (s *Service) HandleRefund(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeTransferEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}
	route, _ := models.RouteFor(ev.TransactionMethod)
	if route.Debits != s.Kind {
		return errors.MalformedEventErr(record.Topic, fmt.Errorf("method %s is not debited by %s", ev.TransactionMethod, s.Kind))
	}
	s.trace(ctx, ev, models.Received, record.Topic)
	logger := s.Logger.With(zap.String("txn_id", ev.TxnID))

	amount := ev.DebitedAmount
	if !amount.IsPositive() {
		amount = ev.Amount
	}
	acc, err := s.Repo.Credit(ctx, ev.Sender, amount, models.MutationKey(ev.TxnID, models.RefundLeg))
	switch {
	case err == nil:
		logger.Info("sender credited back", zap.String("sender", ev.Sender),
			zap.String("amount", amount.String()), zap.String("balance", acc.Balance.String()))
	case errors.Is(err, errors.ErrDuplicateDelivery):
		logger.Debug("refund already applied")
		return nil
	default:
		// a refund that cannot land must not be dropped silently
		logger.Error("refund failed", zap.String("sender", ev.Sender), zap.Error(err))
		return err
	}

	s.trace(ctx, ev.WithStatus(models.RefundLeg, ev.TxnStatus, ev.Failure, msgReversed), models.Emitted, "")
	return nil
}

func (s *Service) failPreCheck(ctx context.Context, ev models.TransferEvent, message string) error {
	out := ev.WithStatus(models.DebitLeg, models.Failed, models.PreCheck, message)
	return s.emit(ctx, models.TopicUpdateTxnSender, out)
}

func (s *Service) emit(ctx context.Context, topic string, ev models.TransferEvent) error {
	if err := s.Publisher.Publish(ctx, topic, ev.TxnID, ev); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	s.trace(ctx, ev, models.Emitted, topic)
	return nil
}

func (s *Service) trace(ctx context.Context, ev models.TransferEvent, direction, topic string) {
	if s.Audit == nil {
		return
	}
	entry := models.AuditEntry{
		At:        time.Now().UTC(),
		Service:   strings.ToLower(string(s.Kind)),
		Direction: direction,
		Topic:     topic,
		Leg:       ev.Leg,
		Status:    ev.TxnStatus,
		Failure:   ev.Failure,
		Message:   ev.Message,
	}
	if err := s.Audit.Append(ctx, ev.TxnID, entry); err != nil {
		s.Logger.Warn("failed to append audit entry", zap.String("txn_id", ev.TxnID), zap.Error(err))
	}
}
