package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/engine"
	"github.com/mindlabs/gomarket/pkg/addr"
)

type createProjectRequest struct {
	Owner       addr.Address   `json:"owner"`
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Operators   []addr.Address `json:"operators"`
}

func (s *Server) handleProjectCreate(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	project, err := s.engine.CreateProject(c.Request.Context(), req.Owner, req.ID, req.Name, req.Description, req.Operators)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleProjectGet(c *gin.Context) {
	project, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	p, err := s.engine.GetProject(c.Request.Context(), project)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleProjectWithdraw(c *gin.Context) {
	project, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if err := s.engine.WithdrawProjectFees(c.Request.Context(), req.Signer, project, req.Amount, req.Destination); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createTradeHubRequest struct {
	Signer addr.Address `json:"signer"`
	Name   string       `json:"name"`
	FeeBps uint64       `json:"fee_bps"`
}

func (s *Server) handleTradeHubCreate(c *gin.Context) {
	project, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	var req createTradeHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	hub, err := s.engine.CreateTradeHub(c.Request.Context(), req.Signer, project, req.Name, req.FeeBps)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

func (s *Server) handleTradeHubGet(c *gin.Context) {
	hub, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	h, err := s.engine.GetTradeHub(c.Request.Context(), hub)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

type createMinterRequest struct {
	Signer       addr.Address         `json:"signer"`
	Name         string               `json:"name"`
	MintPrice    uint64               `json:"mint_price"`
	MaxSupply    uint64               `json:"max_supply"`
	AssetsConfig *domain.AssetsConfig `json:"assets_config,omitempty"`
}

func (s *Server) handleMinterCreate(c *gin.Context) {
	project, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	var req createMinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	minter, err := s.engine.CreateMinterConfig(c.Request.Context(), req.Signer, project, req.Name, req.MintPrice, req.MaxSupply, req.AssetsConfig)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, minter)
}

func (s *Server) handleMinterGet(c *gin.Context) {
	minter, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	m, err := s.engine.GetMinterConfig(c.Request.Context(), minter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type mintAssetRequest struct {
	Signer addr.Address `json:"signer"`
	Owner  addr.Address `json:"owner"`
	Name   string       `json:"name,omitempty"`
	URI    string       `json:"uri,omitempty"`
}

func (s *Server) handleMintAsset(c *gin.Context) {
	project, ok := pathAddr(c, "addr")
	if !ok {
		return
	}
	var req mintAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	minter := engine.MinterAddress(project, c.Param("name"))
	asset, err := s.engine.MintAsset(c.Request.Context(), req.Signer, project, minter, req.Owner, req.Name, req.URI)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}
