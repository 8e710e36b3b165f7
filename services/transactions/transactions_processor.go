package transactions

import (
	// Go Internal Packages
	"context"
	"fmt"
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

type TxRepository interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) error
	FindTransaction(ctx context.Context, txnID string) (models.Transaction, error)
	ResolveTransaction(ctx context.Context, txnID string, status models.TxnStatus, failure models.Failure, message string) (bool, error)
	ListTransactions(ctx context.Context, party string) ([]models.Transaction, error)
	ListAllTransactions(ctx context.Context, limit int64) ([]models.Transaction, error)
	ListPendingTransactions(ctx context.Context, before time.Time, limit int64) ([]models.Transaction, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CurrencyTable interface {
	CurrencyFor(phone string) string
}

type AuditTrail interface {
	Append(ctx context.Context, txnID string, entry models.AuditEntry) error
	Entries(ctx context.Context, txnID string) ([]models.AuditEntry, error)
}

// TxProcessor owns the transaction records. It starts transfers and turns the status
// events of the ledger participants into terminal record states and compensations.
type TxProcessor struct {
	Logger       *zap.Logger
	TxRepo       TxRepository
	Publisher    Publisher
	Currencies   CurrencyTable
	Audit        AuditTrail
	PollInterval time.Duration
}

func NewTxProcessor(logger *zap.Logger, txRepo TxRepository, publisher Publisher, currencies CurrencyTable, audit AuditTrail) *TxProcessor {
	return &TxProcessor{
		Logger:       logger,
		TxRepo:       txRepo,
		Publisher:    publisher,
		Currencies:   currencies,
		Audit:        audit,
		PollInterval: 100 * time.Millisecond,
	}
}

const (
	msgCrossBorder = "You Can't Make International Payment Through Bank"

	resubmitBatch = 100
)

// TransferRequest is a sender's request to move Amount to Receiver.
type TransferRequest struct {
	Sender   string
	Receiver string
	Amount   decimal.Decimal
	Method   models.TransactionMethod
}

func (r TransferRequest) validate() error {
	ve := errors.ValidationErrs()
	if r.Sender == "" {
		ve.Add("sender", "cannot be empty")
	}
	if r.Receiver == "" {
		ve.Add("receiver", "cannot be empty")
	}
	if !r.Amount.IsPositive() {
		ve.Add("amount", "must be positive")
	}
	if !models.ExactAmount(r.Amount) {
		ve.Add("amount", fmt.Sprintf("must have at most %d decimal places", models.AmountPlaces))
	}
	if _, ok := models.RouteFor(r.Method); !ok {
		ve.Add("method", fmt.Sprintf("unknown method %q", r.Method))
	}
	return ve.Err()
}

func (p *TxProcessor) Topics() []string {
	return []string{models.TopicUpdateTxnSender, models.TopicUpdateTxnReceiver}
}

func (p *TxProcessor) Handlers() map[string]func(context.Context, models.Record) error {
	return map[string]func(context.Context, models.Record) error{
		models.TopicUpdateTxnSender:   p.HandleSenderStatus,
		models.TopicUpdateTxnReceiver: p.HandleReceiverStatus,
	}
}

// Initiate records the DEBIT leg and publishes the attempt for the owning ledger.
// Bank transfers across country codes are failed on the spot without touching a ledger.
func (p *TxProcessor) Initiate(ctx context.Context, req TransferRequest) (models.Transaction, error) {
	if err := req.validate(); err != nil {
		return models.Transaction{}, err
	}
	route, _ := models.RouteFor(req.Method)

	id := utils.NewID()
	now := time.Now().UTC()
	tx := models.Transaction{
		RecordID:          id,
		TxnID:             id,
		Sender:            req.Sender,
		Receiver:          req.Receiver,
		Amount:            req.Amount,
		FromCurrency:      p.Currencies.CurrencyFor(req.Sender),
		ToCurrency:        p.Currencies.CurrencyFor(req.Receiver),
		TransactionMethod: req.Method,
		TransactionType:   models.Debit,
		TxnStatus:         models.Pending,
		CreatedOn:         now,
		UpdatedOn:         now,
	}
	logger := p.Logger.With(zap.String("txn_id", id))

	if route.SameCountry && !helpers.SameCountry(req.Sender, req.Receiver) {
		tx.TxnStatus = models.Failed
		tx.Failure = models.PreCheck
		tx.Message = msgCrossBorder
		if err := p.TxRepo.InsertTransaction(ctx, tx); err != nil {
			return models.Transaction{}, err
		}
		p.trace(ctx, tx.Event(), models.Emitted, "")
		logger.Warn("cross-border bank transfer rejected at initiation")
		return tx, nil
	}

	if err := p.TxRepo.InsertTransaction(ctx, tx); err != nil {
		return models.Transaction{}, err
	}
	if err := p.Publisher.Publish(ctx, route.Topic, id, tx.Event()); err != nil {
		// The record stays PENDING: the broker may have taken the attempt anyway, and
		// Resubmit sends it again if it did not.
		logger.Error("failed to publish transfer attempt", zap.Error(err))
		return tx, fmt.Errorf("failed to publish transfer attempt: %w", err)
	}
	p.trace(ctx, tx.Event(), models.Emitted, route.Topic)
	logger.Info("transfer initiated", zap.String("method", string(req.Method)), zap.String("amount", req.Amount.String()))
	return tx, nil
}

// Resubmit publishes again the attempt of every DEBIT leg still PENDING after age. A
// ledger decides each transaction once, so a resubmitted attempt only repeats that
// decision. It returns how many attempts went out.
func (p *TxProcessor) Resubmit(ctx context.Context, age time.Duration) (int, error) {
	stale, err := p.TxRepo.ListPendingTransactions(ctx, time.Now().UTC().Add(-age), resubmitBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range stale {
		tx := stale[i]
		route, ok := models.RouteFor(tx.TransactionMethod)
		if !ok {
			p.Logger.Error("pending transaction with unknown method", zap.String("txn_id", tx.TxnID))
			continue
		}
		if err := p.Publisher.Publish(ctx, route.Topic, tx.TxnID, tx.Event()); err != nil {
			return sent, fmt.Errorf("failed to resubmit %s: %w", tx.TxnID, err)
		}
		p.trace(ctx, tx.Event(), models.Emitted, route.Topic)
		sent++
	}
	if sent > 0 {
		p.Logger.Warn("resubmitted pending transfers", zap.Int("count", sent))
	}
	return sent, nil
}

// RunResubmitter calls Resubmit every interval until ctx is done.
func (p *TxProcessor) RunResubmitter(ctx context.Context, interval, age time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := p.Resubmit(ctx, age); err != nil {
			p.Logger.Error("failed to resubmit pending transfers", zap.Error(err))
		}
	}
}

// HandleSenderStatus applies a participant's status report to the DEBIT leg. Only the
// first terminal report changes the record; a POSTDEBIT failure also compensates.
func (p *TxProcessor) HandleSenderStatus(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeTransferEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}
	p.trace(ctx, ev, models.Received, record.Topic)
	logger := p.Logger.With(zap.String("txn_id", ev.TxnID))

	if ev.TxnStatus == models.Pending || (ev.Leg == models.DebitLeg && ev.TxnStatus == models.Successful) {
		logger.Debug("transfer progress", zap.String("leg", string(ev.Leg)), zap.String("message", ev.Message))
		return nil
	}

	current, err := p.TxRepo.FindTransaction(ctx, ev.TxnID)
	if errors.Is(err, errors.ErrTxnNotFound) {
		logger.Error("status for unknown transaction")
		return nil
	}
	if err != nil {
		return err
	}
	if current.TxnStatus.Terminal() {
		logger.Debug("transaction already terminal, ignoring status",
			zap.String("status", string(current.TxnStatus)), zap.String("reported", string(ev.TxnStatus)))
		p.trace(ctx, ev, models.Ignored, record.Topic)
		return nil
	}

	failure := ev.Failure
	if ev.TxnStatus == models.Successful {
		failure = models.NoFailure
	}

	// Compensation goes out before the record turns terminal so that a crash in between
	// is retried on redelivery. The ledger refunds at most once per transaction.
	if failure == models.PostDebit {
		if err := p.compensate(ctx, current, ev); err != nil {
			return err
		}
	}

	moved, err := p.TxRepo.ResolveTransaction(ctx, ev.TxnID, ev.TxnStatus, failure, ev.Message)
	if err != nil {
		return err
	}
	if !moved {
		p.trace(ctx, ev, models.Ignored, record.Topic)
		return nil
	}
	logger.Info("transaction resolved", zap.String("status", string(ev.TxnStatus)),
		zap.String("failure", string(failure)), zap.String("message", ev.Message))

	if failure == models.PostDebit {
		p.recordCredit(ctx, current, ev, models.Failed, models.PostDebit)
	}
	return nil
}

func (p *TxProcessor) compensate(ctx context.Context, current models.Transaction, ev models.TransferEvent) error {
	route, _ := models.RouteFor(current.TransactionMethod)
	refund := current.Event()
	refund.DebitedAmount = ev.DebitedAmount
	refund = refund.WithStatus(models.RefundLeg, models.Failed, models.PostDebit, ev.Message)

	topic := route.Debits.RefundTopic()
	if err := p.Publisher.Publish(ctx, topic, current.TxnID, refund); err != nil {
		return fmt.Errorf("failed to publish compensation: %w", err)
	}
	p.trace(ctx, refund, models.Emitted, topic)
	p.Logger.Warn("compensation requested", zap.String("txn_id", current.TxnID),
		zap.String("topic", topic), zap.String("amount", refund.DebitedAmount.String()))
	return nil
}

// HandleReceiverStatus materializes the CREDIT leg once the receiver was credited.
func (p *TxProcessor) HandleReceiverStatus(ctx context.Context, record models.Record) error {
	ev, err := models.DecodeTransferEvent(record.Topic, record.Value)
	if err != nil {
		return err
	}
	p.trace(ctx, ev, models.Received, record.Topic)
	if ev.TxnStatus != models.Successful {
		return nil
	}

	current, err := p.TxRepo.FindTransaction(ctx, ev.TxnID)
	if err != nil && !errors.Is(err, errors.ErrTxnNotFound) {
		return err
	}
	if err != nil {
		// the event still carries everything a credit record needs
		current = models.Transaction{
			TxnID: ev.TxnID, Sender: ev.Sender, Receiver: ev.Receiver, Amount: ev.Amount,
			FromCurrency: ev.FromCurrency, ToCurrency: ev.ToCurrency, TransactionMethod: ev.TransactionMethod,
		}
	}
	p.recordCredit(ctx, current, ev, models.Successful, models.NoFailure)
	return nil
}

func (p *TxProcessor) recordCredit(ctx context.Context, debit models.Transaction, ev models.TransferEvent, status models.TxnStatus, failure models.Failure) {
	now := time.Now().UTC()
	credit := models.Transaction{
		RecordID:          models.CreditRecordID(debit.TxnID),
		TxnID:             debit.TxnID,
		Sender:            debit.Sender,
		Receiver:          debit.Receiver,
		Amount:            debit.Amount,
		DebitedAmount:     ev.DebitedAmount,
		FromCurrency:      debit.FromCurrency,
		ToCurrency:        debit.ToCurrency,
		TransactionMethod: debit.TransactionMethod,
		TransactionType:   models.Credit,
		TxnStatus:         status,
		Failure:           failure,
		Message:           ev.Message,
		CreatedOn:         now,
		UpdatedOn:         now,
	}
	err := p.TxRepo.InsertTransaction(ctx, credit)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrDuplicateDelivery):
		p.Logger.Debug("credit record already exists", zap.String("txn_id", debit.TxnID))
	default:
		p.Logger.Error("failed to record credit leg", zap.String("txn_id", debit.TxnID), zap.Error(err))
	}
}

// Get returns the DEBIT leg of txnID.
func (p *TxProcessor) Get(ctx context.Context, txnID string) (models.Transaction, error) {
	return p.TxRepo.FindTransaction(ctx, txnID)
}

// List returns the legs that moved party's money.
func (p *TxProcessor) List(ctx context.Context, party string) ([]models.Transaction, error) {
	return p.TxRepo.ListTransactions(ctx, party)
}

// ListAll returns the newest legs across all parties, at most limit of them.
func (p *TxProcessor) ListAll(ctx context.Context, limit int64) ([]models.Transaction, error) {
	return p.TxRepo.ListAllTransactions(ctx, limit)
}

// Trail returns the saga audit trail of txnID.
func (p *TxProcessor) Trail(ctx context.Context, txnID string) ([]models.AuditEntry, error) {
	if p.Audit == nil {
		return nil, nil
	}
	return p.Audit.Entries(ctx, txnID)
}

// Await polls the DEBIT leg until it is terminal or timeout elapses, then returns the
// last state seen. A PENDING result means the saga is still running.
func (p *TxProcessor) Await(ctx context.Context, txnID string, timeout time.Duration) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		tx, err := p.TxRepo.FindTransaction(ctx, txnID)
		if err != nil && ctx.Err() == nil {
			return tx, err
		}
		if err == nil && tx.TxnStatus.Terminal() {
			return tx, nil
		}
		select {
		case <-ctx.Done():
			// the deadline is not an error; report what the saga has reached
			return p.TxRepo.FindTransaction(context.WithoutCancel(ctx), txnID)
		case <-ticker.C:
		}
	}
}

func (p *TxProcessor) trace(ctx context.Context, ev models.TransferEvent, direction, topic string) {
	if p.Audit == nil {
		return
	}
	entry := models.AuditEntry{
		At:        time.Now().UTC(),
		Service:   "transaction",
		Direction: direction,
		Topic:     topic,
		Leg:       ev.Leg,
		Status:    ev.TxnStatus,
		Failure:   ev.Failure,
		Message:   ev.Message,
	}
	if err := p.Audit.Append(ctx, ev.TxnID, entry); err != nil {
		p.Logger.Warn("failed to append audit entry", zap.String("txn_id", ev.TxnID), zap.Error(err))
	}
}
