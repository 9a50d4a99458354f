package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/pkg/addr"
)

type initializeProtocolRequest struct {
	Payer     addr.Address       `json:"payer"`
	Admins    []addr.Address     `json:"admins"`
	Allowlist []addr.Address     `json:"withdraw_allowlist"`
	Fees      domain.FeeSchedule `json:"fees"`
}

func (s *Server) handleProtocolInitialize(c *gin.Context) {
	var req initializeProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	cfg, err := s.engine.InitializeProtocol(c.Request.Context(), req.Payer, req.Admins, req.Allowlist, req.Fees)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleProtocolGet(c *gin.Context) {
	cfg, err := s.engine.GetProtocol(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type updateFeesRequest struct {
	Admin addr.Address       `json:"admin"`
	Fees  domain.FeeSchedule `json:"fees"`
}

func (s *Server) handleFeesUpdate(c *gin.Context) {
	var req updateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if err := s.engine.UpdateFees(c.Request.Context(), req.Admin, req.Fees); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateFeeRequest struct {
	Admin addr.Address `json:"admin"`
	Fee   domain.Fee   `json:"fee"`
}

func (s *Server) handleFeeUpdate(c *gin.Context) {
	var req updateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	op := domain.Operation(c.Param("kind"))
	if err := s.engine.UpdateFee(c.Request.Context(), req.Admin, op, req.Fee); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type withdrawRequest struct {
	Signer      addr.Address `json:"signer"`
	Amount      uint64       `json:"amount"`
	Destination addr.Address `json:"destination"`
}

func (s *Server) handleProtocolWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if err := s.engine.WithdrawProtocolFees(c.Request.Context(), req.Signer, req.Amount, req.Destination); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
