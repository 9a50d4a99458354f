package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/metrics"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// ProtocolAddress is where the singleton protocol record lives. The
// record account is also the protocol treasury.
func ProtocolAddress() addr.Address {
	return addr.Derive("protocol")
}

func loadProtocolTx(ctx context.Context, tx querier) (*domain.ProtocolConfig, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, admins_json, allowlist_json, fees_json FROM protocol_config WHERE id=1
`)
	var address, adminsJSON, allowlistJSON, feesJSON string
	if err := row.Scan(&address, &adminsJSON, &allowlistJSON, &feesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProtocolNotInitialized
		}
		return nil, fmt.Errorf("select protocol: %w", err)
	}
	var cfg domain.ProtocolConfig
	var err error
	if cfg.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(adminsJSON), &cfg.Admins); err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	if err := json.Unmarshal([]byte(allowlistJSON), &cfg.WithdrawAllowlist); err != nil {
		return nil, fmt.Errorf("decode allowlist: %w", err)
	}
	if err := json.Unmarshal([]byte(feesJSON), &cfg.Fees); err != nil {
		return nil, fmt.Errorf("decode fees: %w", err)
	}
	return &cfg, nil
}

func saveFeesTx(ctx context.Context, tx querier, fees domain.FeeSchedule) error {
	raw, err := json.Marshal(fees)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE protocol_config SET fees_json=? WHERE id=1`, string(raw)); err != nil {
		return fmt.Errorf("update fees: %w", err)
	}
	return nil
}

// InitializeProtocol creates the protocol registry exactly once. The
// payer funds the record account's rent reserve.
func (e *Engine) InitializeProtocol(ctx context.Context, payer addr.Address, admins, allowlist []addr.Address, fees domain.FeeSchedule) (*domain.ProtocolConfig, error) {
	if len(admins) > domain.MaxAdmins || len(allowlist) > domain.MaxAdmins {
		return nil, domain.ErrTooManyAdmins
	}
	cfg := &domain.ProtocolConfig{
		Address:           ProtocolAddress(),
		Admins:            admins,
		WithdrawAllowlist: allowlist,
		Fees:              fees,
	}
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		if _, err := loadProtocolTx(ctx, tx); !errors.Is(err, domain.ErrProtocolNotInitialized) {
			if err == nil {
				return domain.ErrProtocolAlreadyInitialized
			}
			return err
		}
		adminsJSON, err := json.Marshal(cfg.Admins)
		if err != nil {
			return err
		}
		allowlistJSON, err := json.Marshal(cfg.WithdrawAllowlist)
		if err != nil {
			return err
		}
		feesJSON, err := json.Marshal(cfg.Fees)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO protocol_config (id, address, admins_json, allowlist_json, fees_json)
VALUES (1,?,?,?,?)
`, cfg.Address.String(), string(adminsJSON), string(allowlistJSON), string(feesJSON)); err != nil {
			return fmt.Errorf("insert protocol: %w", err)
		}
		if err := openRecordAccountTx(ctx, tx, payer, cfg.Address, domain.ProtocolRecordSize); err != nil {
			return err
		}
		ev.add(events.TypeProtocolInitialized, map[string]string{
			"protocol": cfg.Address.String(),
			"payer":    payer.String(),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	log.WithField("protocol", cfg.Address.String()).Info("protocol initialized")
	return cfg, nil
}

// UpdateFees replaces the whole fee schedule. Admin only.
func (e *Engine) UpdateFees(ctx context.Context, admin addr.Address, fees domain.FeeSchedule) error {
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if !cfg.IsAdmin(admin) {
			return domain.ErrUnauthorized
		}
		if err := saveFeesTx(ctx, tx, fees); err != nil {
			return err
		}
		ev.add(events.TypeFeesUpdated, map[string]string{"admin": admin.String()})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
	}
	return err
}

// UpdateFee replaces a single schedule entry. Admin only.
func (e *Engine) UpdateFee(ctx context.Context, admin addr.Address, op domain.Operation, fee domain.Fee) error {
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if !cfg.IsAdmin(admin) {
			return domain.ErrUnauthorized
		}
		fees := cfg.Fees
		if err := fees.Set(op, fee); err != nil {
			return err
		}
		if err := saveFeesTx(ctx, tx, fees); err != nil {
			return err
		}
		ev.add(events.TypeFeesUpdated, map[string]string{
			"admin":     admin.String(),
			"operation": string(op),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
	}
	return err
}

// WithdrawProtocolFees moves accumulated fees out of the protocol
// treasury. Caller must be an admin and the destination must be on the
// allowlist; the treasury keeps at least its rent reserve.
func (e *Engine) WithdrawProtocolFees(ctx context.Context, admin addr.Address, amount uint64, destination addr.Address) error {
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if !cfg.IsAdmin(admin) {
			return domain.ErrUnauthorized
		}
		if !cfg.IsAllowlisted(destination) {
			return domain.ErrAddressNotAllowlisted
		}
		if err := transferTx(ctx, tx, cfg.Address, destination, amount); err != nil {
			return err
		}
		ev.add(events.TypeFeesWithdrawn, map[string]string{
			"treasury": cfg.Address.String(),
			"to":       destination.String(),
			"amount":   strconv.FormatUint(amount, 10),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return err
	}
	metrics.FeeWithdrawals.Add(1)
	return nil
}

func (e *Engine) GetProtocol(ctx context.Context) (*domain.ProtocolConfig, error) {
	return loadProtocolTx(ctx, e.db)
}

// payProtocolFeeTx charges the schedule fee for op to payer, crediting
// the protocol treasury. Returns the amount charged.
func payProtocolFeeTx(ctx context.Context, tx querier, cfg *domain.ProtocolConfig, payer addr.Address, op domain.Operation, base *uint64) (uint64, error) {
	fee, err := cfg.Fees.FeeFor(op, base)
	if err != nil {
		return 0, err
	}
	if fee > 0 {
		if err := transferTx(ctx, tx, payer, cfg.Address, fee); err != nil {
			return 0, err
		}
	}
	return fee, nil
}
