package domain

import "errors"

// Authorization errors.
var (
	ErrUnauthorized          = errors.New("unauthorized: only authorities can perform this action")
	ErrAddressNotAllowlisted = errors.New("destination address is not on the withdraw allowlist")
	ErrNotAssetOwner         = errors.New("not the asset owner")
	ErrNotListingOwner       = errors.New("not the listing owner")
)

// State-conflict errors.
var (
	ErrProtocolAlreadyInitialized = errors.New("protocol already initialized")
	ErrProtocolNotInitialized     = errors.New("protocol not initialized")
	ErrProjectExists              = errors.New("project already exists")
	ErrTradeHubExists             = errors.New("trade hub already exists")
	ErrMinterConfigExists         = errors.New("minter config already exists")
	ErrAssetAlreadyFrozen         = errors.New("asset already frozen")
	ErrInvalidTransferAuthority   = errors.New("asset has an invalid transfer delegate authority")
	ErrMaxSupplyReached           = errors.New("max supply reached")
	ErrNotFound                   = errors.New("record not found")
)

// Arithmetic errors.
var (
	ErrFeeCalculationOverflow = errors.New("fee calculation overflow")
	ErrFeesExceedPrice        = errors.New("fees exceed sale price")
	ErrPriceExceedsMax        = errors.New("listing price exceeds buyer max price")
)

// Resource errors.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrMinimumBalanceRequired = errors.New("balance would drop below reserve floor")
)

// Validation errors on create paths.
var (
	ErrNameTooLong        = errors.New("name too long")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrTooManyOperators   = errors.New("too many authorized operators")
	ErrTooManyAdmins      = errors.New("too many admins")
	ErrFeeBpsTooHigh      = errors.New("fee bps above 10000")
	ErrNameAndURIRequired = errors.New("minter config has no assets config, provide a name and uri")
	ErrUnknownOperation   = errors.New("unknown fee operation")
)
