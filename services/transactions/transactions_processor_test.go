package transactions

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	// Local Packages
	currency "e-wallet/currency"
	errors "e-wallet/errors"
	models "e-wallet/models"
	memory "e-wallet/repositories/memory"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic string
	key   string
	event models.TransferEvent
}

type fakePublisher struct {
	mu   sync.Mutex
	out  []published
	fail error
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, value any) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, published{topic: topic, key: key, event: value.(models.TransferEvent)})
	return nil
}

func (f *fakePublisher) on(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, p := range f.out {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

const (
	indian  = "+91-9000000001"
	indian2 = "+91-9000000002"
	briton  = "+44-7000000001"
)

func newProcessor() (*TxProcessor, *memory.TxRepository, *fakePublisher) {
	repo := memory.NewTxRepository()
	pub := &fakePublisher{}
	p := NewTxProcessor(zap.NewNop(), repo, pub, currency.DefaultTable(), memory.NewAuditTrail())
	p.PollInterval = 5 * time.Millisecond
	return p, repo, pub
}

func statusRecord(t *testing.T, topic string, ev models.TransferEvent) models.Record {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return models.Record{Topic: topic, Key: []byte(ev.TxnID), Value: data}
}

func initiate(t *testing.T, p *TxProcessor, sender, receiver string, amount int64, method models.TransactionMethod) models.Transaction {
	t.Helper()
	tx, err := p.Initiate(context.Background(), TransferRequest{
		Sender: sender, Receiver: receiver, Amount: decimal.NewFromInt(amount), Method: method,
	})
	require.NoError(t, err)
	return tx
}

func TestInitiatePublishesAttempt(t *testing.T) {
	p, repo, pub := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToWallet)

	assert.Equal(t, models.Pending, tx.TxnStatus)
	assert.Equal(t, models.Debit, tx.TransactionType)
	assert.Equal(t, "INR", tx.FromCurrency)

	stored, err := repo.FindTransaction(context.Background(), tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Pending, stored.TxnStatus)

	attempts := pub.on(models.TopicBankToWallet)
	require.Len(t, attempts, 1)
	assert.Equal(t, tx.TxnID, attempts[0].key)
	assert.True(t, attempts[0].event.Amount.Equal(decimal.NewFromInt(40)))
}

func TestInitiateRejectsCrossBorderBankTransfer(t *testing.T) {
	p, repo, pub := newProcessor()
	tx := initiate(t, p, indian, briton, 10, models.BankToPerson)

	assert.Equal(t, models.Failed, tx.TxnStatus)
	assert.Equal(t, models.PreCheck, tx.Failure)
	assert.Equal(t, "You Can't Make International Payment Through Bank", tx.Message)
	assert.Empty(t, pub.out, "nothing reaches a ledger")

	stored, err := repo.FindTransaction(context.Background(), tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Failed, stored.TxnStatus)
}

func TestInitiateAllowsCrossBorderWalletTransfer(t *testing.T) {
	p, _, pub := newProcessor()
	tx := initiate(t, p, indian, briton, 5, models.WalletToPerson)

	assert.Equal(t, models.Pending, tx.TxnStatus)
	assert.Equal(t, "GBP", tx.ToCurrency)
	assert.Len(t, pub.on(models.TopicWalletToPerson), 1)
}

func TestInitiateValidatesRequest(t *testing.T) {
	p, _, _ := newProcessor()
	_, err := p.Initiate(context.Background(), TransferRequest{Sender: indian, Amount: decimal.Zero, Method: "CASH"})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
	for _, field := range []string{"receiver", "amount", "method"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestInitiateKeepsRecordPendingWhenPublishFails(t *testing.T) {
	p, repo, pub := newProcessor()
	pub.fail = fmt.Errorf("broker down")

	tx, err := p.Initiate(context.Background(), TransferRequest{
		Sender: indian, Receiver: indian2, Amount: decimal.NewFromInt(1), Method: models.BankToPerson,
	})
	require.Error(t, err)
	assert.NotEmpty(t, tx.TxnID)

	stored, err := repo.FindTransaction(context.Background(), tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Pending, stored.TxnStatus, "the attempt may have been delivered")
}

func TestResubmitRepublishesStalePendingAttempts(t *testing.T) {
	ctx := context.Background()
	p, _, pub := newProcessor()

	pub.fail = fmt.Errorf("broker down")
	lost, err := p.Initiate(ctx, TransferRequest{
		Sender: indian, Receiver: indian2, Amount: decimal.NewFromInt(3), Method: models.BankToWallet,
	})
	require.Error(t, err)
	pub.fail = nil

	done := initiate(t, p, indian, indian2, 4, models.BankToPerson)
	ev := done.Event().WithStatus(models.CreditLeg, models.Successful, models.NoFailure, "Transaction Successful")
	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, ev)))

	time.Sleep(5 * time.Millisecond)
	sent, err := p.Resubmit(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "terminal transactions are left alone")

	attempts := pub.on(models.TopicBankToWallet)
	require.Len(t, attempts, 1)
	assert.Equal(t, lost.TxnID, attempts[0].key)
	assert.Equal(t, models.Pending, attempts[0].event.TxnStatus)

	sent, err = p.Resubmit(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sent, "recent attempts are given time")
}

func TestInitiateRejectsSubCentAmount(t *testing.T) {
	p, _, pub := newProcessor()
	_, err := p.Initiate(context.Background(), TransferRequest{
		Sender: indian, Receiver: indian2, Amount: decimal.RequireFromString("0.005"), Method: models.BankToPerson,
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
	assert.Empty(t, pub.out)
}

func TestDebitProgressKeepsRecordPending(t *testing.T) {
	ctx := context.Background()
	p, repo, _ := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

	ev := tx.Event().WithStatus(models.DebitLeg, models.Successful, models.NoFailure, "Amount debited")
	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, ev)))

	stored, err := repo.FindTransaction(ctx, tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Pending, stored.TxnStatus)
}

func TestSenderStatusResolvesOnce(t *testing.T) {
	ctx := context.Background()
	p, repo, _ := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

	ok := tx.Event().WithStatus(models.CreditLeg, models.Successful, models.NoFailure, "Transaction Successful")
	late := tx.Event().WithStatus(models.DebitLeg, models.Failed, models.PreCheck, "Insufficient Balance")

	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, ok)))
	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, late)))

	stored, err := repo.FindTransaction(ctx, tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Successful, stored.TxnStatus)
	assert.Equal(t, "Transaction Successful", stored.Message)
}

func TestPostDebitFailureCompensatesOnce(t *testing.T) {
	ctx := context.Background()
	p, repo, pub := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToWallet)

	failed := tx.Event()
	failed.DebitedAmount = decimal.NewFromInt(40)
	failed = failed.WithStatus(models.CreditLeg, models.Failed, models.PostDebit, "Receiver Wallet not found")
	rec := statusRecord(t, models.TopicUpdateTxnSender, failed)

	require.NoError(t, p.HandleSenderStatus(ctx, rec))
	require.NoError(t, p.HandleSenderStatus(ctx, rec))

	refunds := pub.on(models.TopicBankAmount)
	require.Len(t, refunds, 1)
	assert.Equal(t, models.RefundLeg, refunds[0].event.Leg)
	assert.True(t, refunds[0].event.DebitedAmount.Equal(decimal.NewFromInt(40)))

	stored, err := repo.FindTransaction(ctx, tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Failed, stored.TxnStatus)
	assert.Equal(t, models.PostDebit, stored.Failure)

	legs, err := repo.ListTransactions(ctx, indian2)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, models.Credit, legs[0].TransactionType)
	assert.Equal(t, models.Failed, legs[0].TxnStatus)
}

func TestPreCheckFailureDoesNotCompensate(t *testing.T) {
	ctx := context.Background()
	p, _, pub := newProcessor()
	tx := initiate(t, p, indian, indian2, 400, models.BankToPerson)

	failed := tx.Event().WithStatus(models.DebitLeg, models.Failed, models.PreCheck, "Insufficient Balance")
	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, failed)))

	assert.Empty(t, pub.on(models.TopicBankAmount))
}

func TestUnknownStatusIsTreatedAsFailure(t *testing.T) {
	ctx := context.Background()
	p, repo, _ := newProcessor()
	tx := initiate(t, p, indian, indian2, 10, models.BankToPerson)

	ev := tx.Event()
	ev.TxnStatus = "EXPLODED"
	require.NoError(t, p.HandleSenderStatus(ctx, statusRecord(t, models.TopicUpdateTxnSender, ev)))

	stored, err := repo.FindTransaction(ctx, tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Failed, stored.TxnStatus)
	assert.Equal(t, models.PreCheck, stored.Failure)
	assert.Equal(t, "No details", stored.Message)
}

func TestStatusForUnknownTransactionIsAcknowledged(t *testing.T) {
	p, _, _ := newProcessor()
	ev := models.TransferEvent{
		TxnID: "missing", Sender: indian, Receiver: indian2, Amount: decimal.NewFromInt(1),
		TransactionMethod: models.BankToPerson, TxnStatus: models.Successful, Leg: models.CreditLeg,
	}
	assert.NoError(t, p.HandleSenderStatus(context.Background(), statusRecord(t, models.TopicUpdateTxnSender, ev)))
}

func TestReceiverStatusRecordsCreditLegOnce(t *testing.T) {
	ctx := context.Background()
	p, repo, _ := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

	ok := tx.Event().WithStatus(models.CreditLeg, models.Successful, models.NoFailure, "Transaction Successful")
	rec := statusRecord(t, models.TopicUpdateTxnReceiver, ok)
	require.NoError(t, p.HandleReceiverStatus(ctx, rec))
	require.NoError(t, p.HandleReceiverStatus(ctx, rec))

	legs, err := p.List(ctx, indian2)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, models.CreditRecordID(tx.TxnID), legs[0].RecordID)
	assert.Equal(t, models.Successful, legs[0].TxnStatus)

	// the DEBIT leg is untouched by the receiver side
	stored, err := repo.FindTransaction(ctx, tx.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.Pending, stored.TxnStatus)
}

func TestMalformedStatusIsRejected(t *testing.T) {
	p, _, _ := newProcessor()
	err := p.HandleSenderStatus(context.Background(), models.Record{Topic: models.TopicUpdateTxnSender, Value: []byte(`{"txnId":""}`)})
	assert.True(t, errors.Is(err, errors.ErrMalformedEvent))
}

func TestAwait(t *testing.T) {
	ctx := context.Background()

	t.Run("returns once terminal", func(t *testing.T) {
		p, _, _ := newProcessor()
		tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

		ok := tx.Event().WithStatus(models.CreditLeg, models.Successful, models.NoFailure, "Transaction Successful")
		rec := statusRecord(t, models.TopicUpdateTxnSender, ok)
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = p.HandleSenderStatus(ctx, rec)
		}()

		got, err := p.Await(ctx, tx.TxnID, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, models.Successful, got.TxnStatus)
	})

	t.Run("reports pending on timeout", func(t *testing.T) {
		p, _, _ := newProcessor()
		tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

		got, err := p.Await(ctx, tx.TxnID, 30*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, models.Pending, got.TxnStatus)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		p, _, _ := newProcessor()
		_, err := p.Await(ctx, "missing", time.Second)
		assert.True(t, errors.Is(err, errors.ErrTxnNotFound))
	})
}

func TestTrailRecordsSagaSteps(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newProcessor()
	tx := initiate(t, p, indian, indian2, 40, models.BankToPerson)

	entries, err := p.Trail(ctx, tx.TxnID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.Emitted, entries[0].Direction)
	assert.Equal(t, models.TopicBankToPerson, entries[0].Topic)
}
