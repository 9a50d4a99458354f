package domain

// Serialized record sizes, used to price each record's rent reserve.
// The layout mirrors the ledger encoding: an 8-byte record header, fixed
// scalars, and length-prefixed strings/lists at their maximum lengths.
const (
	ProtocolRecordSize uint64 = 262
	ProjectRecordSize  uint64 = 452
	TradeHubRecordSize uint64 = 84
	ListingRecordSize  uint64 = 88
	MinterRecordSize   uint64 = 342

	// SystemAccountSize is the size of a plain balance-holding account
	// such as a project treasury.
	SystemAccountSize uint64 = 0
)

const (
	accountOverheadBytes = 128
	rentPerByte          = 6960
)

// RentFloor is the minimum balance a record of the given size must hold
// to stay allocated. Creating a record transfers this amount from the
// payer into the record account as its reserve; closing the record
// refunds the whole account balance.
func RentFloor(size uint64) uint64 {
	return (size + accountOverheadBytes) * rentPerByte
}
