package services

import (
	"context"
	"time"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/ident"
	"github.com/demo-credit/wallet-backend/internal/metrics"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// LedgerService is the engine behind every balance change. Each operation is
// one atomic unit of work: the journal entry, the balance overwrite and the
// status transition commit together or not at all, with the wallet row locked
// for the duration so concurrent operations on the same wallet serialize.
type LedgerService struct {
	store     repository.Store
	txTimeout time.Duration
}

func NewLedgerService(store repository.Store, txTimeout time.Duration) *LedgerService {
	return &LedgerService{store: store, txTimeout: txTimeout}
}

// History is the paginated journal view for one user.
type History struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
}

// validateAmount re-asserts what the transport layer already checked: the
// engine never trusts a non-positive or sub-cent amount.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.InvalidOperation("amount must be positive")
	}
	if amount.Exponent() < -2 {
		return apperr.InvalidOperation("amount must have at most 2 decimal places")
	}
	return nil
}

func (s *LedgerService) Balance(ctx context.Context, userID string) (models.Wallet, error) {
	return s.store.Wallets().GetByUserID(ctx, userID)
}

func (s *LedgerService) Fund(ctx context.Context, userID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}
	if description == "" {
		description = "Wallet funding"
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var entry models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context, st repository.Store) error {
		wallet, err := st.Wallets().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		entry, err = st.Transactions().Create(ctx, models.Transaction{
			Reference:   ident.NewReference(),
			UserID:      userID,
			WalletID:    wallet.ID,
			Type:        models.TxnCredit,
			Amount:      amount,
			Description: description,
			Status:      models.TxnPending,
		})
		if err != nil {
			return err
		}
		if err := st.Wallets().UpdateBalance(ctx, wallet.ID, wallet.Balance.Add(amount)); err != nil {
			return err
		}
		if err := st.Transactions().UpdateStatus(ctx, entry.ID, models.TxnCompleted); err != nil {
			return err
		}
		entry.Status = models.TxnCompleted
		return nil
	})
	if err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}
	metrics.TransactionsTotal.WithLabelValues("fund").Inc()
	return entry, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}
	if description == "" {
		description = "Wallet withdrawal"
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var entry models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context, st repository.Store) error {
		wallet, err := st.Wallets().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amount) {
			return apperr.InsufficientFunds()
		}
		entry, err = st.Transactions().Create(ctx, models.Transaction{
			Reference:   ident.NewReference(),
			UserID:      userID,
			WalletID:    wallet.ID,
			Type:        models.TxnDebit,
			Amount:      amount,
			Description: description,
			Status:      models.TxnPending,
		})
		if err != nil {
			return err
		}
		if err := st.Wallets().UpdateBalance(ctx, wallet.ID, wallet.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := st.Transactions().UpdateStatus(ctx, entry.ID, models.TxnCompleted); err != nil {
			return err
		}
		entry.Status = models.TxnCompleted
		return nil
	})
	if err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}
	metrics.TransactionsTotal.WithLabelValues("withdraw").Inc()
	return entry, nil
}

// Transfer moves amount from the sender's wallet to the wallet behind the
// recipient account number. It writes two cross-linked journal entries, one
// DEBIT and one CREDIT; both become COMPLETED in the same commit or neither
// does. The returned entry is the sender's debit leg.
func (s *LedgerService) Transfer(ctx context.Context, senderUserID, recipientAccountNumber string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var debit models.Transaction
	err := s.store.WithTx(ctx, func(ctx context.Context, st repository.Store) error {
		senderWallet, err := st.Wallets().GetByUserID(ctx, senderUserID)
		if err != nil {
			return err
		}
		if senderWallet.Balance.LessThan(amount) {
			return apperr.InsufficientFunds()
		}

		recipient, err := st.Users().GetByAccountNumber(ctx, recipientAccountNumber)
		if err != nil {
			return err
		}
		if recipient.ID == senderUserID {
			return apperr.InvalidOperation("cannot transfer funds to yourself")
		}
		recipientWallet, err := st.Wallets().GetByUserID(ctx, recipient.ID)
		if err != nil {
			return err
		}

		// Take both row locks (in id order) and re-read balances under them;
		// the check above was only for error precedence.
		senderWallet, recipientWallet, err = st.Wallets().LockPair(ctx, senderWallet.ID, recipientWallet.ID)
		if err != nil {
			return err
		}
		if senderWallet.Balance.LessThan(amount) {
			return apperr.InsufficientFunds()
		}

		debitRef := ident.NewReference()
		creditRef := ident.NewReference()

		debitDesc := description
		if debitDesc == "" {
			debitDesc = "Transfer to " + recipientAccountNumber
		}
		debit, err = st.Transactions().Create(ctx, models.Transaction{
			Reference:   debitRef,
			UserID:      senderUserID,
			WalletID:    senderWallet.ID,
			Type:        models.TxnDebit,
			Amount:      amount,
			Description: debitDesc,
			Status:      models.TxnPending,
			Metadata: map[string]any{
				"recipientAccountNumber": recipientAccountNumber,
			},
		})
		if err != nil {
			return err
		}
		credit, err := st.Transactions().Create(ctx, models.Transaction{
			Reference:   creditRef,
			UserID:      recipient.ID,
			WalletID:    recipientWallet.ID,
			Type:        models.TxnCredit,
			Amount:      amount,
			Description: "Transfer from " + senderUserID,
			Status:      models.TxnPending,
			Metadata: map[string]any{
				"senderUserId":                senderUserID,
				"relatedTransactionReference": debitRef,
			},
		})
		if err != nil {
			return err
		}

		if err := st.Wallets().UpdateBalance(ctx, senderWallet.ID, senderWallet.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := st.Wallets().UpdateBalance(ctx, recipientWallet.ID, recipientWallet.Balance.Add(amount)); err != nil {
			return err
		}
		if err := st.Transactions().UpdateStatus(ctx, debit.ID, models.TxnCompleted); err != nil {
			return err
		}
		if err := st.Transactions().UpdateStatus(ctx, credit.ID, models.TxnCompleted); err != nil {
			return err
		}
		debit.Status = models.TxnCompleted
		return nil
	})
	if err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}
	metrics.TransactionsTotal.WithLabelValues("transfer").Inc()
	return debit, nil
}

func (s *LedgerService) GetHistory(ctx context.Context, userID string, page, limit int) (History, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	entries, total, err := s.store.Transactions().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return History{}, err
	}
	return History{Transactions: entries, Total: total, Page: page, Limit: limit}, nil
}
