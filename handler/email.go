package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/service"
)

type EmailHandler struct {
	email *service.EmailService
}

func NewEmailHandler(email *service.EmailService) *EmailHandler {
	return &EmailHandler{email: email}
}

func (h *EmailHandler) Draft(c *gin.Context) {
	var req service.EmailDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.email.Draft(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *EmailHandler) Refine(c *gin.Context) {
	var req service.EmailRefineRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.email.Refine(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
