package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/middleware"
	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
	"github.com/Hmmmm3247/ContractGuard/service"
)

type NegotiationHandler struct {
	coach    *service.NegotiationCoach
	vault    *service.Vault
	live     *config.LiveConfig
	upgrader websocket.Upgrader
}

// NewNegotiationHandler accepts websocket upgrades only from allowedOrigins;
// an empty list or "*" allows any origin.
func NewNegotiationHandler(coach *service.NegotiationCoach, vault *service.Vault, live *config.LiveConfig, allowedOrigins []string) *NegotiationHandler {
	return &NegotiationHandler{
		coach: coach,
		vault: vault,
		live:  live,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		if set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Message answers one text roleplay turn
func (h *NegotiationHandler) Message(c *gin.Context) {
	var req service.RoleplayRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.coach.Reply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// IssueTicket returns a short-lived ticket for the voice websocket
func (h *NegotiationHandler) IssueTicket(c *gin.Context) {
	var persona service.Persona
	if !bindJSON(c, &persona) {
		return
	}
	if persona.ContractID != "" {
		if _, err := h.vault.Get(c.Request.Context(), persona.ContractID); err != nil {
			respondError(c, err)
			return
		}
	}

	ticket, expiresAt, err := middleware.IssueTicket(persona.ContractID, string(persona.Identity), string(persona.Tone), h.live)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to issue live ticket", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Voice sessions are not available", "kind": "ServiceUnavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket":     ticket,
		"expires_at": expiresAt.Format(time.RFC3339),
		"sampleRate": gin.H{"input": 16000, "output": service.OutputSampleRate},
	})
}

// Live upgrades to a websocket and bridges it to a voice session. Runs
// behind middleware.LiveTicket.
func (h *NegotiationHandler) Live(c *gin.Context) {
	claims := middleware.GetTicket(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Live session ticket required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Warn(c.Request.Context(), "failed to upgrade live connection", "error", err)
		return
	}

	persona := service.Persona{
		ContractID: claims.ContractID,
		Identity:   model.UserIdentity(claims.Identity),
		Tone:       model.NegotiationTone(claims.Tone),
	}
	ctx := logger.With(c.Request.Context(), logger.ContractIDKey, claims.ContractID)
	if err := h.coach.StartLive(ctx, persona, conn); err != nil {
		logger.Warn(ctx, "live session failed", "error", err)
	}
}
