package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Hmmmm3247/ContractGuard/config"
)

const ticketContextKey = "live_ticket"

// TicketClaims binds a voice negotiation session to its persona. A ticket is
// a short-lived capability for one websocket, not a user login.
type TicketClaims struct {
	ContractID string `json:"cid,omitempty"`
	Identity   string `json:"idn,omitempty"`
	Tone       string `json:"tone,omitempty"`
	jwt.RegisteredClaims
}

// IssueTicket signs a ticket valid for the configured TTL.
func IssueTicket(contractID, identity, tone string, cfg *config.LiveConfig) (string, time.Time, error) {
	if cfg.TicketSecret == "" {
		return "", time.Time{}, errors.New("live ticket secret is not configured")
	}
	now := time.Now()
	expiresAt := now.Add(cfg.TicketTTL())

	claims := TicketClaims{
		ContractID: contractID,
		Identity:   identity,
		Tone:       tone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.TicketSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseTicket verifies a ticket and returns its claims.
func ParseTicket(tokenString string, cfg *config.LiveConfig) (*TicketClaims, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.TicketSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid ticket")
	}
	return claims, nil
}

// LiveTicket requires a valid ticket before the websocket upgrade. Browsers
// cannot set headers on websocket requests, so the ?ticket= query parameter
// is accepted alongside a Bearer header.
func LiveTicket(cfg *config.LiveConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("ticket")
		if tokenString == "" {
			parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Live session ticket required"})
			return
		}

		claims, err := ParseTicket(tokenString, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
			return
		}

		c.Set(ticketContextKey, claims)
		c.Next()
	}
}

// GetTicket returns the verified ticket, or nil outside LiveTicket.
func GetTicket(c *gin.Context) *TicketClaims {
	if v, exists := c.Get(ticketContextKey); exists {
		if claims, ok := v.(*TicketClaims); ok {
			return claims
		}
	}
	return nil
}
