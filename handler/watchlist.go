package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/service"
)

type WatchlistHandler struct {
	watchlist *service.Watchlist
}

func NewWatchlistHandler(watchlist *service.Watchlist) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

func (h *WatchlistHandler) List(c *gin.Context) {
	companies, err := h.watchlist.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// Toggle adds or removes the posted profile snapshot
func (h *WatchlistHandler) Toggle(c *gin.Context) {
	var company model.CompanyProfile
	if !bindJSON(c, &company) {
		return
	}

	added, err := h.watchlist.Toggle(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": company.ID, "watching": added})
}
