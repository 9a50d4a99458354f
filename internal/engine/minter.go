package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindlabs/gomarket/internal/assetreg"
	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/metrics"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// MinterAddress derives the record address for (project, name).
func MinterAddress(project addr.Address, name string) addr.Address {
	return addr.Derive("minter_config", project.Bytes(), []byte(name))
}

// MintedAssetAddress derives the asset created by the nth mint of a
// minter config.
func MintedAssetAddress(minter addr.Address, n uint64) addr.Address {
	return addr.DeriveU64("asset", minter.Bytes(), n)
}

func getMinterTx(ctx context.Context, tx querier, minter addr.Address) (*domain.MinterConfig, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, project, name, mint_price, mints_counter, max_supply, name_prefix, uri_prefix, created_at
FROM minter_configs WHERE address=?
`, minter.String())
	var (
		m                         domain.MinterConfig
		address, project, created string
		price, counter, maxSupply int64
		namePrefix, uriPrefix     sql.NullString
	)
	err := row.Scan(&address, &project, &m.Name, &price, &counter, &maxSupply, &namePrefix, &uriPrefix, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select minter config: %w", err)
	}
	m.MintPrice = uint64(price)
	m.MintsCounter = uint64(counter)
	m.MaxSupply = uint64(maxSupply)
	if m.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if m.Project, err = addr.Parse(project); err != nil {
		return nil, err
	}
	if namePrefix.Valid {
		m.AssetsConfig = &domain.AssetsConfig{
			AssetNamePrefix: namePrefix.String,
			AssetURIPrefix:  uriPrefix.String,
		}
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &m, nil
}

// CreateMinterConfig registers a mint template under a project. Operator
// gated; pays the CreateMinterConfig fee.
func (e *Engine) CreateMinterConfig(ctx context.Context, signer, project addr.Address, name string, mintPrice, maxSupply uint64, assetsConfig *domain.AssetsConfig) (*domain.MinterConfig, error) {
	if name == "" || len(name) > domain.MaxMinterNameLen {
		return nil, domain.ErrNameTooLong
	}
	if assetsConfig != nil && len(assetsConfig.AssetURIPrefix) > domain.MaxURIPrefixLen {
		return nil, domain.ErrNameTooLong
	}

	minter := &domain.MinterConfig{
		Address:      MinterAddress(project, name),
		Project:      project,
		Name:         name,
		MintPrice:    mintPrice,
		MaxSupply:    maxSupply,
		AssetsConfig: assetsConfig,
	}
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		p, err := getProjectTx(ctx, tx, project)
		if err != nil {
			return err
		}
		if !p.IsAuthorized(signer) {
			return domain.ErrUnauthorized
		}
		if _, err := getMinterTx(ctx, tx, minter.Address); err == nil {
			return domain.ErrMinterConfigExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := payProtocolFeeTx(ctx, tx, cfg, signer, domain.OpCreateMinterConfig, nil); err != nil {
			return err
		}

		minter.CreatedAt = e.now().UTC()
		var namePrefix, uriPrefix sql.NullString
		if assetsConfig != nil {
			namePrefix = sql.NullString{String: assetsConfig.AssetNamePrefix, Valid: true}
			uriPrefix = sql.NullString{String: assetsConfig.AssetURIPrefix, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO minter_configs (address, project, name, mint_price, mints_counter, max_supply, name_prefix, uri_prefix, created_at)
VALUES (?,?,?,?,0,?,?,?,?)
`, minter.Address.String(), project.String(), name, int64(mintPrice), int64(maxSupply),
			namePrefix, uriPrefix, minter.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert minter config: %w", err)
		}
		if err := openRecordAccountTx(ctx, tx, signer, minter.Address, domain.MinterRecordSize); err != nil {
			return err
		}

		ev.add(events.TypeMinterCreated, map[string]string{
			"minter":  minter.Address.String(),
			"project": project.String(),
			"name":    name,
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	return minter, nil
}

// MintAsset creates a new asset from a minter config, owned by owner.
// The signer must be a project operator; the signer pays the MintAsset
// fee to the protocol and the mint price into the project treasury.
func (e *Engine) MintAsset(ctx context.Context, signer, project, minter, owner addr.Address, name, uri string) (*assetreg.Asset, error) {
	var minted *assetreg.Asset
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		p, err := getProjectTx(ctx, tx, project)
		if err != nil {
			return err
		}
		if !p.IsAuthorized(signer) {
			return domain.ErrUnauthorized
		}
		m, err := getMinterTx(ctx, tx, minter)
		if err != nil {
			return err
		}
		if m.Project != project {
			return domain.ErrNotFound
		}
		if !m.SupplyAvailable() {
			return domain.ErrMaxSupplyReached
		}

		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := payProtocolFeeTx(ctx, tx, cfg, signer, domain.OpMintAsset, nil); err != nil {
			return err
		}
		if m.MintPrice > 0 {
			if err := transferTx(ctx, tx, signer, p.Treasury, m.MintPrice); err != nil {
				return err
			}
		}

		assetName, assetURI, err := m.NextAssetIdentity(name, uri)
		if err != nil {
			return err
		}
		asset := assetreg.Asset{
			Address: MintedAssetAddress(m.Address, m.MintsCounter),
			Owner:   owner,
			Name:    assetName,
			URI:     assetURI,
		}
		if err := assetreg.New(tx).Create(ctx, asset); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE minter_configs SET mints_counter = mints_counter + 1 WHERE address=?
`, m.Address.String()); err != nil {
			return fmt.Errorf("bump mints counter: %w", err)
		}

		minted = &asset
		ev.add(events.TypeAssetMinted, map[string]string{
			"asset":  asset.Address.String(),
			"minter": m.Address.String(),
			"owner":  owner.String(),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	metrics.AssetsMinted.Add(1)
	return minted, nil
}

func (e *Engine) GetMinterConfig(ctx context.Context, minter addr.Address) (*domain.MinterConfig, error) {
	return getMinterTx(ctx, e.db, minter)
}

// GetAsset exposes the collaborator's view of an asset for read paths.
func (e *Engine) GetAsset(ctx context.Context, asset addr.Address) (*assetreg.Asset, error) {
	return assetreg.New(e.db).Get(ctx, asset)
}
