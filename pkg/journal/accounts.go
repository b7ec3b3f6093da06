package journal

import (
	"context"
	"log/slog"
	"strings"

	"tradejournal/pkg/recordstore"
)

// AccountRepository is the typed entry point for account records.
type AccountRepository struct {
	store    *recordstore.Store
	accounts *recordstore.Collection[Account]
	trades   *recordstore.Collection[Trade]
	ids      IDGenerator
	logger   *slog.Logger
}

// NewAccountRepository binds an account repository to store.
func NewAccountRepository(store *recordstore.Store, ids IDGenerator, logger *slog.Logger) *AccountRepository {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountRepository{
		store:    store,
		accounts: accountCollection(store),
		trades:   tradeCollection(store),
		ids:      ids,
		logger:   logger,
	}
}

// CreateAccount assigns a fresh id and inserts the account.
func (r *AccountRepository) CreateAccount(ctx context.Context, in AccountInput) (Account, error) {
	in, err := normalizeAccountInput(in)
	if err != nil {
		return Account{}, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return Account{}, err
	}
	account, err := r.accounts.Add(ctx, Account{ID: id, Name: in.Name, Balance: in.Balance})
	if err != nil {
		return Account{}, classifyStoreError("create account", err)
	}
	return account, nil
}

// GetAccount returns the account with id. A missing id yields found == false.
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (Account, bool, error) {
	account, found, err := r.accounts.Get(ctx, id)
	if err != nil {
		return Account{}, false, classifyStoreError("get account", err)
	}
	return account, found, nil
}

// ListAccounts returns every account in store order.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	accounts, err := r.accounts.All(ctx)
	if err != nil {
		return nil, classifyStoreError("list accounts", err)
	}
	return accounts, nil
}

// UpdateAccount replaces an existing account. It fails with ErrCodeNotFound
// when the id is unknown.
func (r *AccountRepository) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	account.ID = strings.TrimSpace(account.ID)
	if account.ID == "" {
		return Account{}, NewError(ErrCodeInvalidInput, "account id is required")
	}
	in, err := normalizeAccountInput(AccountInput{Name: account.Name, Balance: account.Balance})
	if err != nil {
		return Account{}, err
	}
	account.Name = in.Name
	updated, err := r.accounts.Replace(ctx, account)
	if err != nil {
		return Account{}, classifyStoreError("update account", err)
	}
	return updated, nil
}

// DeleteAccountCascade removes every trade of the account and then the
// account itself in one transaction. It returns the number of trades removed.
// Deleting an unknown account is a no-op.
func (r *AccountRepository) DeleteAccountCascade(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.store.Update(ctx, func(tx *recordstore.Tx) error {
		n, err := r.trades.WithTx(tx).DeleteByIndex(ctx, AccountIDIndex, id)
		if err != nil {
			return err
		}
		removed = n
		return r.accounts.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return 0, classifyStoreError("delete account", err)
	}
	r.logger.Info("account deleted", "account_id", id, "trades_removed", removed)
	return removed, nil
}
