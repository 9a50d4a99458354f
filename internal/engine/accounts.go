package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// Account is a balance-holding account. Reserve is the rent floor the
// balance may never drop below while the account exists; plain wallet
// accounts have a zero reserve.
type Account struct {
	Address addr.Address `json:"address"`
	Balance uint64       `json:"balance"`
	Reserve uint64       `json:"reserve"`
}

func getAccountTx(ctx context.Context, tx querier, a addr.Address) (*Account, error) {
	row := tx.QueryRowContext(ctx, `SELECT balance, reserve FROM accounts WHERE address=?`, a.String())
	acct := Account{Address: a}
	var balance, reserve int64
	if err := row.Scan(&balance, &reserve); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	acct.Balance = uint64(balance)
	acct.Reserve = uint64(reserve)
	return &acct, nil
}

func creditTx(ctx context.Context, tx querier, a addr.Address, amount uint64) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO accounts (address, balance, reserve) VALUES (?,?,0)
ON CONFLICT(address) DO UPDATE SET balance = balance + excluded.balance
`, a.String(), int64(amount))
	if err != nil {
		return fmt.Errorf("credit %s: %w", a, err)
	}
	return nil
}

// debitTx removes funds, converting underflow into explicit errors:
// spending more than the balance is ErrInsufficientFunds; leaving less
// than the reserve floor is ErrMinimumBalanceRequired.
func debitTx(ctx context.Context, tx querier, a addr.Address, amount uint64) error {
	acct, err := getAccountTx(ctx, tx, a)
	if err != nil {
		return err
	}
	if acct == nil || acct.Balance < amount {
		return domain.ErrInsufficientFunds
	}
	if acct.Balance-amount < acct.Reserve {
		return domain.ErrMinimumBalanceRequired
	}
	_, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = balance - ? WHERE address=?`,
		int64(amount), a.String())
	if err != nil {
		return fmt.Errorf("debit %s: %w", a, err)
	}
	return nil
}

func transferTx(ctx context.Context, tx querier, from, to addr.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := debitTx(ctx, tx, from, amount); err != nil {
		return err
	}
	return creditTx(ctx, tx, to, amount)
}

// openRecordAccountTx funds a freshly created record account to its rent
// floor, paid by payer, and pins the floor as the account's reserve.
func openRecordAccountTx(ctx context.Context, tx querier, payer, record addr.Address, recordSize uint64) error {
	rent := domain.RentFloor(recordSize)
	if err := transferTx(ctx, tx, payer, record, rent); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE accounts SET reserve=? WHERE address=?`,
		int64(rent), record.String())
	if err != nil {
		return fmt.Errorf("set reserve %s: %w", record, err)
	}
	return nil
}

// closeRecordAccountTx deallocates a record account, refunding its whole
// balance (reserve included) to refundTo.
func closeRecordAccountTx(ctx context.Context, tx querier, record, refundTo addr.Address) (uint64, error) {
	acct, err := getAccountTx(ctx, tx, record)
	if err != nil {
		return 0, err
	}
	var refund uint64
	if acct != nil {
		refund = acct.Balance
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE address=?`, record.String()); err != nil {
		return 0, fmt.Errorf("close account %s: %w", record, err)
	}
	if refund > 0 {
		if err := creditTx(ctx, tx, refundTo, refund); err != nil {
			return 0, err
		}
	}
	return refund, nil
}

// GetAccount returns the account, or a zero-balance view if it was never
// funded.
func (e *Engine) GetAccount(ctx context.Context, a addr.Address) (*Account, error) {
	acct, err := getAccountTx(ctx, e.db, a)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return &Account{Address: a}, nil
	}
	return acct, nil
}

// Fund credits an account out of thin air. Only available when the
// engine was configured with AllowFunding; the real ledger's funding
// paths are out of scope here.
func (e *Engine) Fund(ctx context.Context, a addr.Address, amount uint64) error {
	if !e.cfg.AllowFunding {
		return domain.ErrUnauthorized
	}
	return e.withTx(ctx, func(tx *sql.Tx, _ *eventLog) error {
		return creditTx(ctx, tx, a, amount)
	})
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
