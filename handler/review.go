package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/service"
)

type ReviewHandler struct {
	reviews *service.ReviewBoard
}

func NewReviewHandler(reviews *service.ReviewBoard) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// List returns every verified review, newest first
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.reviews.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// Submit runs moderation. A rejection is 422 with reason and suggestedFix.
func (h *ReviewHandler) Submit(c *gin.Context) {
	var draft service.ReviewDraft
	if !bindJSON(c, &draft) {
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), &draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
