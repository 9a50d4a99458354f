package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/metrics"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// TradeHubAddress derives the record address for (project, name).
func TradeHubAddress(project addr.Address, name string) addr.Address {
	return addr.Derive("trade_hub", []byte(name), project.Bytes())
}

func getTradeHubTx(ctx context.Context, tx querier, hub addr.Address) (*domain.TradeHub, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, project, name, fee_bps, created_at FROM trade_hubs WHERE address=?
`, hub.String())
	var (
		h                         domain.TradeHub
		address, project, created string
		feeBps                    int64
	)
	err := row.Scan(&address, &project, &h.Name, &feeBps, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select trade hub: %w", err)
	}
	h.FeeBps = uint64(feeBps)
	if h.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if h.Project, err = addr.Parse(project); err != nil {
		return nil, err
	}
	h.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &h, nil
}

// CreateTradeHub opens a named marketplace under a project. The signer
// must be the project owner or an authorized operator; the payer covers
// the CreateTradeHub fee and the hub record's rent.
func (e *Engine) CreateTradeHub(ctx context.Context, signer, project addr.Address, name string, feeBps uint64) (*domain.TradeHub, error) {
	if name == "" || len(name) > domain.MaxTradeHubNameLen {
		return nil, domain.ErrNameTooLong
	}
	if feeBps > domain.BpsDenominator {
		return nil, domain.ErrFeeBpsTooHigh
	}

	hub := &domain.TradeHub{
		Address: TradeHubAddress(project, name),
		Project: project,
		Name:    name,
		FeeBps:  feeBps,
	}
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		p, err := getProjectTx(ctx, tx, project)
		if err != nil {
			return err
		}
		if !p.IsAuthorized(signer) {
			return domain.ErrUnauthorized
		}
		if _, err := getTradeHubTx(ctx, tx, hub.Address); err == nil {
			return domain.ErrTradeHubExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := payProtocolFeeTx(ctx, tx, cfg, signer, domain.OpCreateTradeHub, nil); err != nil {
			return err
		}

		hub.CreatedAt = e.now().UTC()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO trade_hubs (address, project, name, fee_bps, created_at)
VALUES (?,?,?,?,?)
`, hub.Address.String(), project.String(), name, int64(feeBps),
			hub.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert trade hub: %w", err)
		}
		if err := openRecordAccountTx(ctx, tx, signer, hub.Address, domain.TradeHubRecordSize); err != nil {
			return err
		}

		ev.add(events.TypeTradeHubCreated, map[string]string{
			"hub":     hub.Address.String(),
			"project": project.String(),
			"name":    name,
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	metrics.TradeHubsCreated.Add(1)
	log.WithField("hub", hub.Address.String()).Info("trade hub created")
	return hub, nil
}

func (e *Engine) GetTradeHub(ctx context.Context, hub addr.Address) (*domain.TradeHub, error) {
	return getTradeHubTx(ctx, e.db, hub)
}
