package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory repository.Store that mimics the database's
// transactional behavior closely enough to exercise the engine's contracts:
// per-wallet row locks held until commit/rollback, buffered writes that only
// become visible on commit, and read-your-writes inside a transaction.
type fakeStore struct {
	mu sync.Mutex

	users        map[string]models.User
	wallets      map[string]models.Wallet
	walletByUser map[string]string
	txns         map[string]models.Transaction
	txnOrder     []string

	walletLocks map[string]*sync.Mutex

	// fault injection
	failStatusUpdate bool
	failWalletUpdate bool
	failWalletCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]models.User{},
		wallets:      map[string]models.Wallet{},
		walletByUser: map[string]string{},
		txns:         map[string]models.Transaction{},
		walletLocks:  map[string]*sync.Mutex{},
	}
}

// seedUser registers a user plus wallet directly in committed state.
func (f *fakeStore) seedUser(email, accountNumber string, balance decimal.Decimal) (models.User, models.Wallet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{
		ID:            uuid.NewString(),
		Email:         email,
		FirstName:     "Test",
		LastName:      "User",
		AccountNumber: accountNumber,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	w := models.Wallet{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Balance:   balance,
		Currency:  "NGN",
		Status:    models.WalletActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.users[u.ID] = u
	f.wallets[w.ID] = w
	f.walletByUser[u.ID] = w.ID
	f.walletLocks[w.ID] = &sync.Mutex{}
	return u, w
}

func (f *fakeStore) committedBalance(walletID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[walletID].Balance
}

func (f *fakeStore) committedTxns() []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Transaction, 0, len(f.txnOrder))
	for _, id := range f.txnOrder {
		out = append(out, f.txns[id])
	}
	return out
}

// ledgerSum is the balance-conservation oracle: completed credits minus
// completed debits for one wallet.
func (f *fakeStore) ledgerSum(walletID string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range f.committedTxns() {
		if t.WalletID != walletID || t.Status != models.TxnCompleted {
			continue
		}
		if t.Type == models.TxnCredit {
			sum = sum.Add(t.Amount)
		} else {
			sum = sum.Sub(t.Amount)
		}
	}
	return sum
}

func (f *fakeStore) Users() repository.Users               { return (*fakeUsers)(f) }
func (f *fakeStore) Wallets() repository.Wallets           { return &fakeWallets{store: f} }
func (f *fakeStore) Transactions() repository.Transactions { return &fakeTransactions{store: f} }

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	tx := &fakeTx{
		store:         f,
		userOverlay:   map[string]models.User{},
		walletOverlay: map[string]models.Wallet{},
		txnOverlay:    map[string]models.Transaction{},
		locked:        map[string]bool{},
	}
	err := fn(ctx, tx)
	if err != nil {
		tx.release()
		return err
	}
	tx.commit()
	return nil
}

// ---- non-transactional reads ----

type fakeUsers fakeStore

func (f *fakeUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	return models.User{}, errors.New("user create outside transaction")
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return models.User{}, apperr.NotFound("user not found")
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user not found")
}

func (f *fakeUsers) GetByAccountNumber(ctx context.Context, accountNumber string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.AccountNumber == accountNumber {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user not found")
}

func (f *fakeUsers) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	_, err := f.GetByAccountNumber(ctx, accountNumber)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUsers) SetBlacklisted(ctx context.Context, id string, flag bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.IsBlacklisted = flag
	f.users[id] = u
	return nil
}

func (f *fakeUsers) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.User
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, f.users[id])
	}
	return out, nil
}

type fakeWallets struct{ store *fakeStore }

func (f *fakeWallets) Create(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	return models.Wallet{}, errors.New("wallet create outside transaction")
}

func (f *fakeWallets) GetByID(ctx context.Context, id string) (models.Wallet, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if w, ok := f.store.wallets[id]; ok {
		return w, nil
	}
	return models.Wallet{}, apperr.NotFound("wallet not found")
}

func (f *fakeWallets) GetByUserID(ctx context.Context, userID string) (models.Wallet, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if wid, ok := f.store.walletByUser[userID]; ok {
		return f.store.wallets[wid], nil
	}
	return models.Wallet{}, apperr.NotFound("wallet not found")
}

func (f *fakeWallets) GetByUserIDForUpdate(ctx context.Context, userID string) (models.Wallet, error) {
	return models.Wallet{}, errors.New("row lock outside transaction")
}

func (f *fakeWallets) LockPair(ctx context.Context, id1, id2 string) (models.Wallet, models.Wallet, error) {
	return models.Wallet{}, models.Wallet{}, errors.New("row lock outside transaction")
}

func (f *fakeWallets) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return errors.New("balance update outside transaction")
}

type fakeTransactions struct{ store *fakeStore }

func (f *fakeTransactions) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	return models.Transaction{}, errors.New("transaction create outside transaction")
}

func (f *fakeTransactions) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	return errors.New("status update outside transaction")
}

func (f *fakeTransactions) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if t, ok := f.store.txns[id]; ok {
		return t, nil
	}
	return models.Transaction{}, apperr.NotFound("transaction not found")
}

func (f *fakeTransactions) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	for _, t := range f.store.committedTxns() {
		if t.Reference == reference {
			return t, nil
		}
	}
	return models.Transaction{}, apperr.NotFound("transaction not found")
}

func (f *fakeTransactions) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, int64, error) {
	all := f.store.committedTxns()
	var mine []models.Transaction
	// newest first
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			mine = append(mine, all[i])
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

// ---- transactional view ----

type fakeTx struct {
	store *fakeStore

	userOverlay   map[string]models.User
	walletOverlay map[string]models.Wallet
	txnOverlay    map[string]models.Transaction
	txnNew        []string
	locked        map[string]bool
	lockOrder     []string
}

func (tx *fakeTx) Users() repository.Users               { return &fakeTxUsers{tx} }
func (tx *fakeTx) Wallets() repository.Wallets           { return &fakeTxWallets{tx} }
func (tx *fakeTx) Transactions() repository.Transactions { return &fakeTxTransactions{tx} }

func (tx *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return fn(ctx, tx)
}

func (tx *fakeTx) lockWallet(id string) {
	if tx.locked[id] {
		return
	}
	tx.store.mu.Lock()
	l, ok := tx.store.walletLocks[id]
	tx.store.mu.Unlock()
	if !ok {
		return
	}
	l.Lock()
	tx.locked[id] = true
	tx.lockOrder = append(tx.lockOrder, id)
}

func (tx *fakeTx) release() {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, id := range tx.lockOrder {
		tx.store.walletLocks[id].Unlock()
	}
	tx.locked = map[string]bool{}
	tx.lockOrder = nil
}

func (tx *fakeTx) commit() {
	tx.store.mu.Lock()
	for id, u := range tx.userOverlay {
		tx.store.users[id] = u
	}
	for id, w := range tx.walletOverlay {
		if _, ok := tx.store.wallets[id]; !ok {
			tx.store.walletByUser[w.UserID] = id
			tx.store.walletLocks[id] = &sync.Mutex{}
		}
		tx.store.wallets[id] = w
	}
	for _, id := range tx.txnNew {
		tx.store.txnOrder = append(tx.store.txnOrder, id)
	}
	for id, t := range tx.txnOverlay {
		tx.store.txns[id] = t
	}
	tx.store.mu.Unlock()
	tx.release()
}

type fakeTxUsers struct{ tx *fakeTx }

func (f *fakeTxUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	if _, err := f.GetByEmail(ctx, u.Email); err == nil {
		return models.User{}, apperr.Conflict("email or account number already exists")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.tx.userOverlay[u.ID] = u
	return u, nil
}

func (f *fakeTxUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	if u, ok := f.tx.userOverlay[id]; ok {
		return u, nil
	}
	return (*fakeUsers)(f.tx.store).GetByID(ctx, id)
}

func (f *fakeTxUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range f.tx.userOverlay {
		if u.Email == email {
			return u, nil
		}
	}
	return (*fakeUsers)(f.tx.store).GetByEmail(ctx, email)
}

func (f *fakeTxUsers) GetByAccountNumber(ctx context.Context, accountNumber string) (models.User, error) {
	for _, u := range f.tx.userOverlay {
		if u.AccountNumber == accountNumber {
			return u, nil
		}
	}
	return (*fakeUsers)(f.tx.store).GetByAccountNumber(ctx, accountNumber)
}

func (f *fakeTxUsers) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	_, err := f.GetByAccountNumber(ctx, accountNumber)
	return err == nil, nil
}

func (f *fakeTxUsers) SetBlacklisted(ctx context.Context, id string, flag bool) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsBlacklisted = flag
	f.tx.userOverlay[id] = u
	return nil
}

func (f *fakeTxUsers) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return (*fakeUsers)(f.tx.store).List(ctx, limit, offset)
}

type fakeTxWallets struct{ tx *fakeTx }

func (f *fakeTxWallets) read(id string) (models.Wallet, bool) {
	if w, ok := f.tx.walletOverlay[id]; ok {
		return w, true
	}
	f.tx.store.mu.Lock()
	defer f.tx.store.mu.Unlock()
	w, ok := f.tx.store.wallets[id]
	return w, ok
}

func (f *fakeTxWallets) Create(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	if f.tx.store.failWalletCreate {
		return models.Wallet{}, errors.New("wallet insert failed")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	f.tx.walletOverlay[w.ID] = w
	return w, nil
}

func (f *fakeTxWallets) GetByID(ctx context.Context, id string) (models.Wallet, error) {
	if w, ok := f.read(id); ok {
		return w, nil
	}
	return models.Wallet{}, apperr.NotFound("wallet not found")
}

func (f *fakeTxWallets) GetByUserID(ctx context.Context, userID string) (models.Wallet, error) {
	for _, w := range f.tx.walletOverlay {
		if w.UserID == userID {
			return w, nil
		}
	}
	f.tx.store.mu.Lock()
	wid, ok := f.tx.store.walletByUser[userID]
	f.tx.store.mu.Unlock()
	if !ok {
		return models.Wallet{}, apperr.NotFound("wallet not found")
	}
	return f.GetByID(ctx, wid)
}

func (f *fakeTxWallets) GetByUserIDForUpdate(ctx context.Context, userID string) (models.Wallet, error) {
	f.tx.store.mu.Lock()
	wid, ok := f.tx.store.walletByUser[userID]
	f.tx.store.mu.Unlock()
	if !ok {
		return models.Wallet{}, apperr.NotFound("wallet not found")
	}
	f.tx.lockWallet(wid)
	return f.GetByID(ctx, wid)
}

func (f *fakeTxWallets) LockPair(ctx context.Context, id1, id2 string) (models.Wallet, models.Wallet, error) {
	ids := []string{id1, id2}
	sort.Strings(ids)
	for _, id := range ids {
		f.tx.lockWallet(id)
	}
	w1, err := f.GetByID(ctx, id1)
	if err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	w2, err := f.GetByID(ctx, id2)
	if err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	return w1, w2, nil
}

func (f *fakeTxWallets) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if f.tx.store.failWalletUpdate {
		return errors.New("balance update failed")
	}
	w, ok := f.read(id)
	if !ok {
		return apperr.NotFound("wallet not found")
	}
	w.Balance = balance
	w.UpdatedAt = time.Now()
	f.tx.walletOverlay[id] = w
	return nil
}

type fakeTxTransactions struct{ tx *fakeTx }

func (f *fakeTxTransactions) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TxnPending
	}
	for _, existing := range f.tx.txnOverlay {
		if existing.Reference == t.Reference {
			return models.Transaction{}, apperr.Conflict("transaction reference already exists")
		}
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.tx.txnOverlay[t.ID] = t
	f.tx.txnNew = append(f.tx.txnNew, t.ID)
	return t, nil
}

func (f *fakeTxTransactions) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	if f.tx.store.failStatusUpdate {
		return errors.New("status update failed")
	}
	t, ok := f.tx.txnOverlay[id]
	if !ok {
		f.tx.store.mu.Lock()
		t, ok = f.tx.store.txns[id]
		f.tx.store.mu.Unlock()
		if !ok {
			return apperr.NotFound("transaction not found")
		}
	}
	if t.Status != models.TxnPending {
		return apperr.InvalidState("transaction already in a terminal state")
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	f.tx.txnOverlay[id] = t
	return nil
}

func (f *fakeTxTransactions) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	if t, ok := f.tx.txnOverlay[id]; ok {
		return t, nil
	}
	return (&fakeTransactions{store: f.tx.store}).GetByID(ctx, id)
}

func (f *fakeTxTransactions) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	for _, t := range f.tx.txnOverlay {
		if t.Reference == reference {
			return t, nil
		}
	}
	return (&fakeTransactions{store: f.tx.store}).GetByReference(ctx, reference)
}

func (f *fakeTxTransactions) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, int64, error) {
	return (&fakeTransactions{store: f.tx.store}).ListByUser(ctx, userID, limit, offset)
}
