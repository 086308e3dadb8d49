package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/service"
)

type CompanyHandler struct {
	directory *service.CompanyDirectory
	reviews   *service.ReviewBoard
	vault     *service.Vault
}

func NewCompanyHandler(directory *service.CompanyDirectory, reviews *service.ReviewBoard, vault *service.Vault) *CompanyHandler {
	return &CompanyHandler{directory: directory, reviews: reviews, vault: vault}
}

// Search lists companies matching ?q= by name or industry
func (h *CompanyHandler) Search(c *gin.Context) {
	companies, err := h.directory.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (h *CompanyHandler) Trending(c *gin.Context) {
	trending, err := h.directory.Trending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trending)
}

// Get returns a company with its review stats
func (h *CompanyHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := h.directory.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.reviews.Stats(ctx, company.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	hasContract, err := h.vault.HasContractWith(ctx, company.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company, "reviewStats": stats, "hasContract": hasContract})
}

type discoverRequest struct {
	Name string `json:"name"`
}

// Discover researches a company that is not in the directory yet
func (h *CompanyHandler) Discover(c *gin.Context) {
	var req discoverRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.directory.Discover(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Rival(c *gin.Context) {
	rival, err := h.directory.Rival(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rival)
}

// Contracts lists stored contracts with this company, for review linking
func (h *CompanyHandler) Contracts(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := h.directory.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	contracts, err := h.vault.ContractsWith(ctx, company.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func (h *CompanyHandler) Reviews(c *gin.Context) {
	reviews, err := h.reviews.ForCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *CompanyHandler) ReviewStats(c *gin.Context) {
	stats, err := h.reviews.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
