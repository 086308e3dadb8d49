package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/service"
)

type ContractHandler struct {
	analysis  *service.AnalysisService
	vault     *service.Vault
	email     *service.EmailService
	maxUpload int64
}

func NewContractHandler(analysis *service.AnalysisService, vault *service.Vault, email *service.EmailService, maxUpload int64) *ContractHandler {
	return &ContractHandler{analysis: analysis, vault: vault, email: email, maxUpload: maxUpload}
}

// Analyze handles pasted contract text
func (h *ContractHandler) Analyze(c *gin.Context) {
	var req service.AnalyzeTextRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.analysis.AnalyzeText(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Upload handles a contract image or PDF sent as multipart field "file".
// Optional form fields: identity, tone, parentId.
func (h *ContractHandler) Upload(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "kind": apperr.KindValidation})
		return
	}
	defer file.Close()

	// One byte past the limit is enough to tell the service it is too large.
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "kind": apperr.KindValidation})
		return
	}

	rec, err := h.analysis.AnalyzeDocument(c.Request.Context(), &service.AnalyzeDocumentRequest{
		Data:     data,
		Identity: model.UserIdentity(c.PostForm("identity")),
		Tone:     model.NegotiationTone(c.PostForm("tone")),
		ParentID: c.PostForm("parentId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List returns the vault, newest first
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.vault.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func (h *ContractHandler) Get(c *gin.Context) {
	rec, err := h.vault.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateContractRequest struct {
	Status      string `json:"status"`
	RenewalDate string `json:"renewalDate"`
}

// Update changes status and/or renewal date
func (h *ContractHandler) Update(c *gin.Context) {
	var req updateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.vault.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.RenewalDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete removes a contract and its chat. Unknown ids succeed.
func (h *ContractHandler) Delete(c *gin.Context) {
	if err := h.vault.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

// SaveDraft stores an email draft on the contract
func (h *ContractHandler) SaveDraft(c *gin.Context) {
	var draft service.EmailDraft
	if !bindJSON(c, &draft) {
		return
	}

	rec, err := h.email.Save(c.Request.Context(), c.Param("id"), &draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ContractHandler) Revert(c *gin.Context) {
	rec, err := h.vault.RevertToVersion(c.Request.Context(), c.Param("id"), c.Param("versionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type translateRequest struct {
	Language string `json:"language"`
}

// Translate returns the analysis in another language without saving it
func (h *ContractHandler) Translate(c *gin.Context) {
	var req translateRequest
	if !bindJSON(c, &req) {
		return
	}

	analysis, err := h.analysis.Translate(c.Request.Context(), c.Param("id"), req.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type summaryRequest struct {
	Style service.SummaryStyle `json:"style"`
}

func (h *ContractHandler) Summary(c *gin.Context) {
	var req summaryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Style == "" {
		req.Style = service.SummaryStandard
	}

	summary, err := h.analysis.AdaptSummary(c.Request.Context(), c.Param("id"), req.Style)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "style": req.Style})
}
