// Package assetreg is the external asset-registry collaborator: it owns
// digital-asset records and their authority delegations. The marketplace
// engine only ever talks to the Registry interface; the sqlite-backed
// implementation here joins the caller's transaction so a failed
// operation rolls the registry back together with everything else.
package assetreg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mindlabs/gomarket/pkg/addr"
)

var (
	ErrAssetNotFound     = errors.New("asset registry: asset not found")
	ErrAssetExists       = errors.New("asset registry: asset already exists")
	ErrAuthorityMismatch = errors.New("asset registry: signer does not hold the required authority")
	ErrAssetFrozen       = errors.New("asset registry: asset is frozen")
	ErrNoDelegation      = errors.New("asset registry: no delegation for capability")
)

type Capability string

const (
	CapabilityTransfer Capability = "transfer"
	CapabilityFreeze   Capability = "freeze"
)

type AuthorityKind string

const (
	// AuthorityOwner tracks the asset owner, whoever that currently is.
	AuthorityOwner AuthorityKind = "owner"
	// AuthorityAddress names a fixed delegate address.
	AuthorityAddress AuthorityKind = "address"
)

// Authority is a capability grant recorded on the asset itself. Absence
// of a delegation is modeled as a nil *Authority, not a kind.
type Authority struct {
	Kind    AuthorityKind `json:"kind"`
	Address addr.Address  `json:"address,omitempty"`
}

func OwnerAuthority() Authority {
	return Authority{Kind: AuthorityOwner}
}

func AddressAuthority(a addr.Address) Authority {
	return Authority{Kind: AuthorityAddress, Address: a}
}

type Asset struct {
	Address           addr.Address `json:"address"`
	Owner             addr.Address `json:"owner"`
	Name              string       `json:"name"`
	URI               string       `json:"uri"`
	Collection        addr.Address `json:"collection,omitempty"`
	Frozen            bool         `json:"frozen"`
	TransferAuthority *Authority   `json:"transfer_authority,omitempty"`
	FreezeAuthority   *Authority   `json:"freeze_authority,omitempty"`
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Registry struct {
	q Querier
}

// New binds a registry to a query surface. Bind to a *sql.Tx to make
// registry calls part of an atomic operation.
func New(q Querier) *Registry {
	return &Registry{q: q}
}

const assetsSchema = `
CREATE TABLE IF NOT EXISTS assets (
  address TEXT PRIMARY KEY,
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  uri TEXT NOT NULL,
  collection TEXT NOT NULL DEFAULT '',
  frozen INTEGER NOT NULL DEFAULT 0,
  transfer_auth_kind TEXT NOT NULL DEFAULT '',
  transfer_auth_addr TEXT NOT NULL DEFAULT '',
  freeze_auth_kind TEXT NOT NULL DEFAULT '',
  freeze_auth_addr TEXT NOT NULL DEFAULT ''
);`

// Schema returns the registry's table DDL for the host to install.
func Schema() string {
	return assetsSchema
}

func (r *Registry) Create(ctx context.Context, asset Asset) error {
	existing, err := r.Get(ctx, asset.Address)
	if err != nil && !errors.Is(err, ErrAssetNotFound) {
		return err
	}
	if existing != nil {
		return ErrAssetExists
	}
	collection := ""
	if !asset.Collection.IsZero() {
		collection = asset.Collection.String()
	}
	_, err = r.q.ExecContext(ctx, `
INSERT INTO assets (address, owner, name, uri, collection, frozen)
VALUES (?,?,?,?,?,0)
`, asset.Address.String(), asset.Owner.String(), asset.Name, asset.URI, collection)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, asset addr.Address) (*Asset, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT address, owner, name, uri, collection, frozen,
       transfer_auth_kind, transfer_auth_addr,
       freeze_auth_kind, freeze_auth_addr
FROM assets WHERE address=?
`, asset.String())

	var (
		a                        Asset
		address, owner           string
		collection               string
		frozen                   int
		tKind, tAddr, fKind, fAddr string
	)
	err := row.Scan(&address, &owner, &a.Name, &a.URI, &collection, &frozen, &tKind, &tAddr, &fKind, &fAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select asset: %w", err)
	}
	if a.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if a.Owner, err = addr.Parse(owner); err != nil {
		return nil, err
	}
	if collection != "" {
		if a.Collection, err = addr.Parse(collection); err != nil {
			return nil, err
		}
	}
	a.Frozen = frozen != 0
	if a.TransferAuthority, err = parseAuthority(tKind, tAddr); err != nil {
		return nil, err
	}
	if a.FreezeAuthority, err = parseAuthority(fKind, fAddr); err != nil {
		return nil, err
	}
	return &a, nil
}

func parseAuthority(kind, address string) (*Authority, error) {
	if kind == "" {
		return nil, nil
	}
	auth := Authority{Kind: AuthorityKind(kind)}
	if address != "" {
		parsed, err := addr.Parse(address)
		if err != nil {
			return nil, err
		}
		auth.Address = parsed
	}
	return &auth, nil
}

func (r *Registry) Owner(ctx context.Context, asset addr.Address) (addr.Address, error) {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return addr.Zero, err
	}
	return a.Owner, nil
}

func (r *Registry) TransferAuthority(ctx context.Context, asset addr.Address) (*Authority, error) {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	return a.TransferAuthority, nil
}

func (r *Registry) FreezeAuthority(ctx context.Context, asset addr.Address) (*Authority, error) {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return nil, err
	}
	return a.FreezeAuthority, nil
}

// resolve maps a delegation (or its absence) to the concrete address
// allowed to exercise the capability right now.
func resolve(a *Asset, delegation *Authority) addr.Address {
	if delegation == nil || delegation.Kind == AuthorityOwner {
		return a.Owner
	}
	return delegation.Address
}

func delegationFor(a *Asset, cap Capability) *Authority {
	if cap == CapabilityTransfer {
		return a.TransferAuthority
	}
	return a.FreezeAuthority
}

func columnsFor(cap Capability) (string, string) {
	if cap == CapabilityTransfer {
		return "transfer_auth_kind", "transfer_auth_addr"
	}
	return "freeze_auth_kind", "freeze_auth_addr"
}

// AddAuthority records (or reassigns) a capability delegation. With no
// existing delegation the signer must be the asset owner; with one, the
// signer must be whoever currently holds the capability.
func (r *Registry) AddAuthority(ctx context.Context, asset addr.Address, cap Capability, authority Authority, signer addr.Address) error {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return err
	}
	current := delegationFor(a, cap)
	if current == nil {
		if signer != a.Owner {
			return ErrAuthorityMismatch
		}
	} else if signer != resolve(a, current) {
		return ErrAuthorityMismatch
	}
	return r.writeAuthority(ctx, asset, cap, &authority)
}

// RemoveAuthority clears a delegation. The owner may always revoke;
// the current delegate may also release its own grant.
func (r *Registry) RemoveAuthority(ctx context.Context, asset addr.Address, cap Capability, signer addr.Address) error {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return err
	}
	current := delegationFor(a, cap)
	if current == nil {
		return ErrNoDelegation
	}
	if signer != a.Owner && signer != resolve(a, current) {
		return ErrAuthorityMismatch
	}
	return r.writeAuthority(ctx, asset, cap, nil)
}

func (r *Registry) writeAuthority(ctx context.Context, asset addr.Address, cap Capability, authority *Authority) error {
	kindCol, addrCol := columnsFor(cap)
	kind, address := "", ""
	if authority != nil {
		kind = string(authority.Kind)
		if authority.Kind == AuthorityAddress {
			address = authority.Address.String()
		}
	}
	_, err := r.q.ExecContext(ctx,
		fmt.Sprintf(`UPDATE assets SET %s=?, %s=? WHERE address=?`, kindCol, addrCol),
		kind, address, asset.String())
	if err != nil {
		return fmt.Errorf("update %s authority: %w", cap, err)
	}
	return nil
}

// SetFrozen flips the freeze flag. The signer must hold the freeze
// capability: the delegate if one exists, the owner otherwise.
func (r *Registry) SetFrozen(ctx context.Context, asset addr.Address, frozen bool, signer addr.Address) error {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return err
	}
	if signer != resolve(a, a.FreezeAuthority) {
		return ErrAuthorityMismatch
	}
	_, err = r.q.ExecContext(ctx, `UPDATE assets SET frozen=? WHERE address=?`,
		boolInt(frozen), asset.String())
	if err != nil {
		return fmt.Errorf("update frozen: %w", err)
	}
	return nil
}

// Transfer moves ownership. Frozen assets cannot move. Transferring
// clears the transfer delegation as a side effect.
func (r *Registry) Transfer(ctx context.Context, asset addr.Address, newOwner addr.Address, signer addr.Address) error {
	a, err := r.Get(ctx, asset)
	if err != nil {
		return err
	}
	if a.Frozen {
		return ErrAssetFrozen
	}
	if signer != a.Owner && signer != resolve(a, a.TransferAuthority) {
		return ErrAuthorityMismatch
	}
	_, err = r.q.ExecContext(ctx, `
UPDATE assets SET owner=?, transfer_auth_kind='', transfer_auth_addr='' WHERE address=?
`, newOwner.String(), asset.String())
	if err != nil {
		return fmt.Errorf("transfer asset: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
