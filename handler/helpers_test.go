package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/middleware"
	"github.com/Hmmmm3247/ContractGuard/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGenerator returns canned replies in order, repeating the last one.
type stubGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (s *stubGenerator) Generate(_ context.Context, _ *service.GenerateRequest) (*service.GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	text := ""
	if len(s.replies) > 0 {
		text = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	return &service.GenerateResult{Text: text}, nil
}

type testApp struct {
	router *gin.Engine
	vault  *service.Vault
	ai     *stubGenerator
	live   *config.LiveConfig
}

const gymAnalysisJSON = `{
  "summary": "36 month gym membership with steep cancellation penalties.",
  "contractType": "Gym Membership",
  "parties": ["Titan Fitness", "Member"],
  "duration": "36 months",
  "totalCost": "R34,200",
  "riskScore": 85,
  "riskLevel": "HIGH",
  "flags": [{"type": "RED", "clause": "Member waives all rights under the CPA.", "explanation": "Unenforceable.", "confidence": 95}]
}`

// newTestApp wires every handler over an in-memory medium, mirroring the
// production routes without rate limiting.
func newTestApp(ai *stubGenerator) *testApp {
	medium := service.NewMemoryMedium()
	chats := service.NewChatStore(medium)
	vault := service.NewVault(medium, 0, chats)
	analysis := service.NewAnalysisService(vault, ai, 0, 1<<20)
	email := service.NewEmailService(vault, ai)
	directory := service.NewCompanyDirectory(medium, ai, 16, time.Hour)
	reviews := service.NewReviewBoard(medium, vault, ai)
	live := &config.LiveConfig{TicketSecret: "test-secret", TicketTTLMinutes: 15}
	coach := service.NewNegotiationCoach(vault, ai, service.NewGeminiLiveDialer(&config.GeminiConfig{}))

	contracts := NewContractHandler(analysis, vault, email, 1<<20)
	chat := NewChatHandler(service.NewChatService(chats, vault, ai))
	companies := NewCompanyHandler(directory, reviews, vault)
	reviewHandler := NewReviewHandler(reviews)
	watchlist := NewWatchlistHandler(service.NewWatchlist(medium))
	emailHandler := NewEmailHandler(email)
	negotiation := NewNegotiationHandler(coach, vault, live, nil)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", Health(nil))

	api := r.Group("/api")
	api.GET("/resources", Resources)
	api.POST("/contracts/analyze", contracts.Analyze)
	api.POST("/contracts/upload", contracts.Upload)
	api.GET("/contracts", contracts.List)
	api.GET("/contracts/:id", contracts.Get)
	api.PATCH("/contracts/:id", contracts.Update)
	api.DELETE("/contracts/:id", contracts.Delete)
	api.PUT("/contracts/:id/draft", contracts.SaveDraft)
	api.POST("/contracts/:id/versions/:versionId/revert", contracts.Revert)
	api.POST("/contracts/:id/translate", contracts.Translate)
	api.POST("/contracts/:id/summary", contracts.Summary)
	api.GET("/chats/:conversationId", chat.History)
	api.POST("/chats/:conversationId/messages", chat.Send)
	api.DELETE("/chats/:conversationId", chat.Clear)
	api.GET("/companies", companies.Search)
	api.GET("/companies/trending", companies.Trending)
	api.GET("/companies/:id", companies.Get)
	api.GET("/companies/:id/contracts", companies.Contracts)
	api.GET("/companies/:id/reviews", companies.Reviews)
	api.GET("/companies/:id/reviews/stats", companies.ReviewStats)
	api.POST("/companies/discover", companies.Discover)
	api.POST("/companies/:id/rival", companies.Rival)
	api.GET("/reviews", reviewHandler.List)
	api.POST("/reviews", reviewHandler.Submit)
	api.GET("/watchlist", watchlist.List)
	api.POST("/watchlist/toggle", watchlist.Toggle)
	api.POST("/email/drafts", emailHandler.Draft)
	api.POST("/email/refine", emailHandler.Refine)
	api.POST("/negotiation/messages", negotiation.Message)
	api.POST("/negotiation/live-tickets", negotiation.IssueTicket)
	api.GET("/negotiation/live", middleware.LiveTicket(live), negotiation.Live)

	return &testApp{router: r, vault: vault, ai: ai, live: live}
}

func (a *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

// analyzeGym stores one analysed contract and returns its id.
func analyzeGym(t *testing.T, a *testApp) string {
	t.Helper()
	a.ai.replies = []string{gymAnalysisJSON}
	w := a.do(http.MethodPost, "/api/contracts/analyze", gin.H{"text": "MEMBERSHIP AGREEMENT - TITAN FITNESS"})
	expectStatus(t, w, http.StatusOK)
	var rec struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &rec)
	return rec.ID
}
