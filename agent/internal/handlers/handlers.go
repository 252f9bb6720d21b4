package handlers

import (
	"errors"
	"net/http"

	"dex-guard/agent/database"
	"dex-guard/agent/internal/blacklist"
	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"
	"dex-guard/agent/internal/session"
	"dex-guard/agent/internal/trade"
	"dex-guard/shared/logger"

	"github.com/gin-gonic/gin"
)

// API exposes the four public core operations over HTTP. Handlers are thin
// JSON adapters; all policy lives in the core packages.
type API struct {
	Analyzer  *risk.Analyzer
	Executor  *trade.Executor
	Blacklist *blacklist.Registry
	Sessions  *session.Manager
	Store     *database.BlacklistStore
	Log       *logger.Logger
}

type analyzeRequest struct {
	Chain   string `json:"chain" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type blacklistRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Pattern string `json:"pattern" binding:"required"`
	Chain   string `json:"chain"`
}

type loginRequest struct {
	UserID     string `json:"userId" binding:"required"`
	Credential string `json:"credential" binding:"required"`
}

func RegisterRoutes(router *gin.Engine, appLogger *logger.Logger) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "dex-guard API is running"})
	})
}

func RegisterAPIRoutes(router *gin.Engine, api *API) {
	apiGroup := router.Group("/api/v1")
	{
		apiGroup.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		apiGroup.POST("/analyze", api.handleAnalyze)
		apiGroup.POST("/trade", api.handleTrade)
		apiGroup.POST("/blacklist", api.handleBlacklistAdd)
		apiGroup.DELETE("/blacklist/:pattern", api.handleBlacklistRemove)
		apiGroup.POST("/login", api.handleLogin)
	}
	api.Log.Info("API routes registered under /api/v1")
}

func (api *API) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	chain, err := chains.ParseChain(req.Chain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict, err := api.Analyzer.AnalyzeToken(c.Request.Context(), chain, req.Address)
	if err != nil {
		if errors.Is(err, risk.ErrDataUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "DataUnavailable"})
			return
		}
		api.Log.Error("analyze failed", "chain", chain, "address", req.Address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (api *API) handleTrade(c *gin.Context) {
	var req trade.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := chains.ParseChain(string(req.Chain)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := api.Executor.ExecuteTrade(c.Request.Context(), req)
	if err != nil {
		api.Log.Error("trade execution errored", "userId", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trade execution failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (api *API) handleBlacklistAdd(c *gin.Context) {
	var req blacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	kind := blacklist.Kind(req.Kind)
	switch kind {
	case blacklist.KindCoin, blacklist.KindDeveloper, blacklist.KindWallet:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be coin, developer or wallet"})
		return
	}

	var chainScope chains.Chain
	if req.Chain != "" {
		parsed, err := chains.ParseChain(req.Chain)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chainScope = parsed
	}

	api.Blacklist.Add(kind, req.Pattern, chainScope)
	if api.Store != nil {
		entry := blacklist.Entry{Kind: kind, Pattern: req.Pattern, Chain: chainScope}
		if err := api.Store.Save(c.Request.Context(), entry); err != nil {
			api.Log.Warn("failed to persist blacklist entry", "pattern", req.Pattern, "error", err)
		}
	}
	api.Log.Info("blacklist entry registered", "kind", kind, "pattern", req.Pattern, "chain", chainScope)
	c.JSON(http.StatusOK, gin.H{"message": "blacklist entry registered"})
}

func (api *API) handleBlacklistRemove(c *gin.Context) {
	pattern := c.Param("pattern")
	api.Blacklist.Remove(pattern)
	if api.Store != nil {
		if err := api.Store.Delete(c.Request.Context(), pattern); err != nil {
			api.Log.Warn("failed to delete blacklist entry", "pattern", pattern, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "blacklist entry removed"})
}

func (api *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ok, err := api.Sessions.Login(c.Request.Context(), req.UserID, req.Credential)
	if err != nil {
		api.Log.Error("login check failed", "userId", req.UserID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "credential service unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
