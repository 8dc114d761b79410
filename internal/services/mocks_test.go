package services

import (
	"context"
	"sort"
	"sync"

	"github.com/josva12/Mpesa-PaySTK/internal/daraja"
	"github.com/josva12/Mpesa-PaySTK/internal/models"
	"github.com/josva12/Mpesa-PaySTK/internal/store"
)

// fakeStore is an in-memory TransactionStore mirroring the Mongo
// implementation's semantics, including the PENDING-only conditional
// update in ApplyResult.
type fakeStore struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{txs: make(map[string]*models.Transaction)}
}

func (f *fakeStore) Insert(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[tx.CheckoutRequestID]; ok {
		return store.ErrDuplicate
	}
	cp := *tx
	f.txs[tx.CheckoutRequestID] = &cp
	return nil
}

func (f *fakeStore) ApplyResult(_ context.Context, checkoutRequestID string, update store.ResultUpdate) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[checkoutRequestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.Status == models.StatusPending {
		tx.Status = update.Status
		code := update.ResultCode
		tx.ResultCode = &code
		tx.ResultDesc = update.ResultDesc
		tx.UpdatedAt = update.UpdatedAt
		if update.Receipt != nil {
			tx.TransactionID = update.Receipt.ReceiptNumber
			if update.Receipt.Amount > 0 {
				tx.Amount = update.Receipt.Amount
			}
			if update.Receipt.Phone != "" {
				tx.Phone = update.Receipt.Phone
			}
			if update.Receipt.TransactionDate != 0 {
				tx.TransactionDate = update.Receipt.TransactionDate
			}
			if update.Receipt.Balance != 0 {
				tx.Balance = update.Receipt.Balance
			}
		}
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, filter store.Filter, limit, skip int64) ([]models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.Transaction
	for _, tx := range f.txs {
		if filter.Phone != "" && tx.Phone != filter.Phone {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		matched = append(matched, *tx)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if skip >= total {
		return []models.Transaction{}, total, nil
	}
	matched = matched[skip:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeStore) get(id string) (models.Transaction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return models.Transaction{}, false
	}
	return *tx, true
}

// fakeGateway returns a canned response or error and records the last
// submission.
type fakeGateway struct {
	resp *daraja.STKPushResponse
	err  error

	calls     int
	lastPhone string
	lastRef   string
	lastDesc  string
}

func (g *fakeGateway) STKPush(_ context.Context, phone string, _ float64, accountReference, transactionDesc string) (*daraja.STKPushResponse, error) {
	g.calls++
	g.lastPhone = phone
	g.lastRef = accountReference
	g.lastDesc = transactionDesc
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}
