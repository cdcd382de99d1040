package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/config"
	"github.com/angohost/payref/pkg/types"
)

// fakeStore is a stateful in-memory stand-in for the gorm store. The
// CAS methods honor the same pending-only transition rules.
type fakeStore struct {
	repository.Store

	orders     map[string]*models.Order
	references map[string]*models.PaymentReference
	invoices   map[string]*models.Invoice
	wallets    map[string]*models.Wallet // keyed by user id
	payments   []*models.Payment
	ledger     []*models.WalletTransaction
	outbox     []*models.OutboxMessage

	paymentKeys map[string]bool // provider+transaction_id
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:      map[string]*models.Order{},
		references:  map[string]*models.PaymentReference{},
		invoices:    map[string]*models.Invoice{},
		wallets:     map[string]*models.Wallet{},
		paymentKeys: map[string]bool{},
	}
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(f)
}

func (f *fakeStore) MarkOrderPaid(_ context.Context, id string) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.IsFinal() {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	return true, nil
}

func (f *fakeStore) MarkOrderCancelled(_ context.Context, id string) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.IsFinal() {
		return false, nil
	}
	o.Status = models.OrderStatusCancelled
	return true, nil
}

func (f *fakeStore) ConfirmReference(_ context.Context, id string) (bool, error) {
	r, ok := f.references[id]
	if !ok || r.Status != models.PaymentReferenceStatusPending {
		return false, nil
	}
	r.Status = models.PaymentReferenceStatusConfirmed
	return true, nil
}

func (f *fakeStore) FailReference(_ context.Context, id string) (bool, error) {
	r, ok := f.references[id]
	if !ok || r.Status != models.PaymentReferenceStatusPending {
		return false, nil
	}
	r.Status = models.PaymentReferenceStatusFailed
	return true, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) (bool, error) {
	key := string(p.Provider) + "|" + p.TransactionID
	if f.paymentKeys[key] {
		return false, nil
	}
	f.paymentKeys[key] = true
	f.payments = append(f.payments, p)
	return true, nil
}

func (f *fakeStore) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	if inv, ok := f.invoices[id]; ok {
		return inv, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetInvoiceByOrderID(_ context.Context, orderID string) (*models.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.OrderID != nil && *inv.OrderID == orderID {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) MarkInvoicePaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	inv, ok := f.invoices[id]
	if !ok || (inv.Status != models.InvoiceStatusDraft && inv.Status != models.InvoiceStatusIssued) {
		return false, nil
	}
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &paidAt
	return true, nil
}

func (f *fakeStore) GetOrCreateWallet(_ context.Context, userID, currency string) (*models.Wallet, error) {
	if w, ok := f.wallets[userID]; ok {
		return w, nil
	}
	w := &models.Wallet{ID: "w-" + userID, UserID: userID, Currency: currency}
	f.wallets[userID] = w
	return w, nil
}

func (f *fakeStore) CreditWallet(_ context.Context, walletID string, amount int64, category, referenceID string) (*models.WalletTransaction, error) {
	for _, w := range f.wallets {
		if w.ID == walletID {
			w.Balance += amount
			wt := &models.WalletTransaction{
				WalletID:     walletID,
				Amount:       amount,
				BalanceAfter: w.Balance,
				Type:         models.WalletTransactionTypeCredit,
				Category:     category,
				ReferenceID:  referenceID,
				Status:       models.WalletTransactionStatusCompleted,
			}
			f.ledger = append(f.ledger, wt)
			return wt, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) EnqueueMessage(_ context.Context, m *models.OutboxMessage) error {
	f.outbox = append(f.outbox, m)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Kafka:  config.KafkaConfig{Topic: config.TopicConfig{PaymentEvents: "payment-events"}},
		Wallet: config.WalletConfig{Currency: "AOA"},
	}
}

func seedOrderWithReference(f *fakeStore) *models.PaymentReference {
	f.orders["ord-1"] = &models.Order{ID: "ord-1", UserID: "u-1", TotalAmount: 5000, Status: models.OrderStatusPending}
	ref := &models.PaymentReference{
		ID:        "pr-1",
		OrderID:   "ord-1",
		UserID:    "u-1",
		Provider:  types.PaymentProviderMulticaixa,
		Reference: "999123456",
		Amount:    5000,
		Status:    models.PaymentReferenceStatusPending,
	}
	f.references[ref.ID] = ref
	return ref
}

func TestConfirm_HappyPath(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	orderID := "ord-1"
	f.invoices["inv-1"] = &models.Invoice{ID: "inv-1", OrderID: &orderID, UserID: "u-1", Type: models.InvoiceTypeOrder, Status: models.InvoiceStatusIssued, Amount: 5000}

	svc := New(f, testConfig(), zap.NewNop().Sugar())
	out, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9", 5000)
	require.NoError(t, err)

	require.False(t, out.AlreadyProcessed)
	require.Equal(t, types.OutcomePaid, out.Result)
	require.Equal(t, models.InvoiceStatusPaid, out.InvoiceStatus)
	require.Equal(t, "TXN-9", out.TransactionID)

	require.Equal(t, models.OrderStatusPaid, f.orders["ord-1"].Status)
	require.Equal(t, models.PaymentReferenceStatusConfirmed, f.references["pr-1"].Status)
	require.Equal(t, models.InvoiceStatusPaid, f.invoices["inv-1"].Status)
	require.Len(t, f.payments, 1)
	require.Equal(t, int64(5000), f.payments[0].AmountPaid)
	require.Empty(t, f.ledger)

	require.Len(t, f.outbox, 1)
	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.outbox[0].Payload), &event))
	require.Equal(t, "payment_confirmed", event["event"])
	require.Equal(t, "ord-1", event["order_id"])
}

func TestConfirm_RedeliveryIsNoop(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	_, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9", 5000)
	require.NoError(t, err)

	out, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9", 5000)
	require.NoError(t, err)
	require.True(t, out.AlreadyProcessed)

	require.Len(t, f.payments, 1)
	require.Len(t, f.outbox, 1)
}

func TestConfirm_DuplicateTransactionBackstop(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	// second pending reference pointing at the same provider transaction
	ref2 := &models.PaymentReference{
		ID: "pr-2", OrderID: "ord-1", UserID: "u-1",
		Provider: types.PaymentProviderMulticaixa, Reference: "999123456",
		Amount: 5000, Status: models.PaymentReferenceStatusPending,
	}
	f.references[ref2.ID] = ref2
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	_, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9", 5000)
	require.NoError(t, err)

	out, err := svc.Confirm(context.Background(), ref2, types.PaymentProviderMulticaixa, "TXN-9", 5000)
	require.NoError(t, err)
	require.True(t, out.AlreadyProcessed)
	require.Len(t, f.payments, 1)
}

func TestConfirm_WalletDepositCreditsBalance(t *testing.T) {
	f := newFakeStore()
	f.orders["ord-2"] = &models.Order{ID: "ord-2", UserID: "u-2", TotalAmount: 10000, Status: models.OrderStatusPending}
	invoiceID := "inv-dep"
	f.invoices[invoiceID] = &models.Invoice{
		ID: invoiceID, UserID: "u-2",
		Type: models.InvoiceTypeWalletDeposit, Status: models.InvoiceStatusIssued, Amount: 10000,
	}
	ref := &models.PaymentReference{
		ID: "pr-dep", OrderID: "ord-2", InvoiceID: &invoiceID, UserID: "u-2",
		Provider: types.PaymentProviderAppyPay, Reference: "888000111",
		Amount: 10000, Status: models.PaymentReferenceStatusPending,
	}
	f.references[ref.ID] = ref
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	out, err := svc.Confirm(context.Background(), ref, types.PaymentProviderAppyPay, "AP-1", 10000)
	require.NoError(t, err)
	require.True(t, out.WalletCredited)

	require.Equal(t, int64(10000), f.wallets["u-2"].Balance)
	require.Len(t, f.ledger, 1)
	require.Equal(t, int64(10000), f.ledger[0].BalanceAfter)
	require.Equal(t, invoiceID, f.ledger[0].ReferenceID)
	require.Equal(t, "AOA", f.wallets["u-2"].Currency)
}

func TestConfirm_SynthesizedReferenceUsesOrderCAS(t *testing.T) {
	f := newFakeStore()
	f.orders["ord-3"] = &models.Order{ID: "ord-3", UserID: "u-3", TotalAmount: 2500, Status: models.OrderStatusPending}
	ref := &models.PaymentReference{OrderID: "ord-3", UserID: "u-3", Reference: "ord-3", Amount: 2500}
	require.True(t, ref.Synthesized())
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	out, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-S", 2500)
	require.NoError(t, err)
	require.False(t, out.AlreadyProcessed)
	require.Equal(t, models.OrderStatusPaid, f.orders["ord-3"].Status)

	// redelivery hits the order CAS
	out, err = svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-S", 2500)
	require.NoError(t, err)
	require.True(t, out.AlreadyProcessed)
	require.Len(t, f.payments, 1)
}

func TestConfirm_MissingTransactionIDFallsBackToReference(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	out, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "", 5000)
	require.NoError(t, err)
	require.Equal(t, "999123456", out.TransactionID)
	require.Equal(t, "999123456", f.payments[0].TransactionID)
}

func TestConfirm_StoredAmountWinsOverCallback(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	_, err := svc.Confirm(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9", 4999)
	require.NoError(t, err)
	require.Equal(t, int64(5000), f.payments[0].AmountPaid)
}

func TestCancel(t *testing.T) {
	f := newFakeStore()
	ref := seedOrderWithReference(f)
	svc := New(f, testConfig(), zap.NewNop().Sugar())

	out, err := svc.Cancel(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9")
	require.NoError(t, err)
	require.False(t, out.AlreadyProcessed)
	require.Equal(t, types.OutcomeCancelled, out.Result)
	require.Equal(t, models.PaymentReferenceStatusFailed, f.references["pr-1"].Status)
	require.Equal(t, models.OrderStatusCancelled, f.orders["ord-1"].Status)
	require.Empty(t, f.payments)
	require.Empty(t, f.outbox)

	out, err = svc.Cancel(context.Background(), ref, types.PaymentProviderMulticaixa, "TXN-9")
	require.NoError(t, err)
	require.True(t, out.AlreadyProcessed)
}
