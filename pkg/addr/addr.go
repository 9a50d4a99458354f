package addr

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Address is a 32-byte account identifier, rendered as base58 text.
// Record addresses are content-derived: the same seed tuple always maps
// to the same address, so clients can recompute them without a lookup.
type Address [32]byte

var Zero Address

// Derive computes the deterministic address for a record from its domain
// tag and seed tuple. Derived addresses have no private key; only the
// engine's own logic can debit them.
func Derive(tag string, seeds ...[]byte) Address {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, s := range seeds {
		// length-prefix each seed so (ab, c) and (a, bc) differ
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		h.Write(n[:])
		h.Write(s)
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// DeriveU64 is Derive with a trailing little-endian u64 seed.
func DeriveU64(tag string, seed []byte, id uint64) Address {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], id)
	return Derive(tag, seed, n[:])
}

// New returns a random address, standing in for a keypair-backed account.
func New() Address {
	var a Address
	if _, err := rand.Read(a[:]); err != nil {
		panic(err)
	}
	return a
}

func Parse(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("address must be %d bytes, got %d", len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return a == Zero
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
