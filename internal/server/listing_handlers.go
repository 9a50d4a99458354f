package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindlabs/gomarket/pkg/addr"
)

type createListingRequest struct {
	Signer addr.Address `json:"signer"`
	Asset  addr.Address `json:"asset"`
	Hub    addr.Address `json:"hub"`
	Price  uint64       `json:"price"`
}

func (s *Server) handleListingCreate(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	listing, err := s.engine.CreateListing(c.Request.Context(), req.Signer, req.Asset, req.Hub, req.Price)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

type delistRequest struct {
	Signer addr.Address `json:"signer"`
	Asset  addr.Address `json:"asset"`
	Hub    addr.Address `json:"hub"`
}

func (s *Server) handleDelist(c *gin.Context) {
	var req delistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if err := s.engine.DelistAsset(c.Request.Context(), req.Signer, req.Asset, req.Hub); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type purchaseRequest struct {
	Buyer    addr.Address `json:"buyer"`
	Asset    addr.Address `json:"asset"`
	Hub      addr.Address `json:"hub"`
	MaxPrice uint64       `json:"max_price"`
}

func (s *Server) handlePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	listing, err := s.engine.PurchaseAsset(c.Request.Context(), req.Buyer, req.Asset, req.Hub, req.MaxPrice)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) handleListingGet(c *gin.Context) {
	listing, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	l, err := s.engine.GetListing(c.Request.Context(), listing)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) handleAssetGet(c *gin.Context) {
	asset, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	a, err := s.engine.GetAsset(c.Request.Context(), asset)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleBalanceGet(c *gin.Context) {
	account, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	acct, err := s.engine.GetAccount(c.Request.Context(), account)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

type fundRequest struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleFund(c *gin.Context) {
	account, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if err := s.engine.Fund(c.Request.Context(), account, req.Amount); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
