// Package server exposes every engine operation over HTTP. Requests
// carry the signer address in the body; signature verification belongs
// to the surrounding execution environment, not this engine.
package server

import (
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mindlabs/gomarket/internal/engine"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/pkg/receipts"
)

var log = logrus.WithField("component", "server")

type Server struct {
	engine   *engine.Engine
	bus      *events.Bus
	receipts *receipts.Store
}

func New(eng *engine.Engine, bus *events.Bus, rcpts *receipts.Store) *Server {
	return &Server{engine: eng, bus: bus, receipts: rcpts}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	r.GET("/ws/events", s.handleEventsWS)

	v1 := r.Group("/v1")
	v1.Use(s.idempotency())

	protocol := v1.Group("/protocol")
	protocol.GET("", s.handleProtocolGet)
	protocol.POST("/initialize", s.handleProtocolInitialize)
	protocol.POST("/fees", s.handleFeesUpdate)
	protocol.POST("/fees/:kind", s.handleFeeUpdate)
	protocol.POST("/withdraw", s.handleProtocolWithdraw)

	projects := v1.Group("/projects")
	projects.POST("", s.handleProjectCreate)
	projectAddr := projects.Group("/:addr")
	projectAddr.GET("", s.handleProjectGet)
	projectAddr.POST("/withdraw", s.handleProjectWithdraw)
	projectAddr.POST("/hubs", s.handleTradeHubCreate)
	projectAddr.POST("/minters", s.handleMinterCreate)
	projectAddr.POST("/minters/:name/mint", s.handleMintAsset)

	v1.GET("/hubs/:addr", s.handleTradeHubGet)
	v1.GET("/minters/:addr", s.handleMinterGet)

	listings := v1.Group("/listings")
	listings.POST("", s.handleListingCreate)
	listings.POST("/delist", s.handleDelist)
	listings.POST("/purchase", s.handlePurchase)
	listings.GET("/:addr", s.handleListingGet)

	v1.GET("/assets/:addr", s.handleAssetGet)
	v1.GET("/accounts/:addr/balance", s.handleBalanceGet)
	v1.POST("/accounts/:addr/fund", s.handleFund)

	return r
}
