package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindlabs/gomarket/internal/assetreg"
	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/pkg/addr"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// fail maps the engine's error taxonomy onto HTTP status codes and
// stable code strings.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"

	switch {
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotAssetOwner),
		errors.Is(err, domain.ErrNotListingOwner),
		errors.Is(err, domain.ErrAddressNotAllowlisted):
		status, code = http.StatusForbidden, "authorization"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, assetreg.ErrAssetNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrProtocolAlreadyInitialized),
		errors.Is(err, domain.ErrProtocolNotInitialized),
		errors.Is(err, domain.ErrProjectExists),
		errors.Is(err, domain.ErrTradeHubExists),
		errors.Is(err, domain.ErrMinterConfigExists),
		errors.Is(err, domain.ErrAssetAlreadyFrozen),
		errors.Is(err, domain.ErrInvalidTransferAuthority),
		errors.Is(err, domain.ErrMaxSupplyReached),
		errors.Is(err, assetreg.ErrAssetExists):
		status, code = http.StatusConflict, "state_conflict"
	case errors.Is(err, domain.ErrFeeCalculationOverflow),
		errors.Is(err, domain.ErrFeesExceedPrice),
		errors.Is(err, domain.ErrPriceExceedsMax):
		status, code = http.StatusUnprocessableEntity, "arithmetic"
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrMinimumBalanceRequired):
		status, code = http.StatusPaymentRequired, "resource"
	case errors.Is(err, assetreg.ErrAuthorityMismatch),
		errors.Is(err, assetreg.ErrAssetFrozen),
		errors.Is(err, assetreg.ErrNoDelegation):
		status, code = http.StatusBadGateway, "collaborator"
	case errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrTooManyOperators),
		errors.Is(err, domain.ErrTooManyAdmins),
		errors.Is(err, domain.ErrFeeBpsTooHigh),
		errors.Is(err, domain.ErrNameAndURIRequired),
		errors.Is(err, domain.ErrUnknownOperation):
		status, code = http.StatusBadRequest, "validation"
	}

	c.JSON(status, errorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "validation"})
}

func pathAddr(c *gin.Context, key string) (addr.Address, bool) {
	a, err := addr.Parse(c.Param(key))
	if err != nil {
		badRequest(c, "invalid address: "+c.Param(key))
		return addr.Zero, false
	}
	return a, true
}
