package service

import (
	"context"
	"sync"
	"time"

	"github.com/Hmmmm3247/ContractGuard/model"
)

type fakeReply struct {
	text    string
	sources []model.GroundingSource
	err     error
}

// fakeGenerator replays queued replies in order, then repeats the last.
type fakeGenerator struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests []*GenerateRequest
	block    chan struct{}
}

func newFakeGenerator(replies ...fakeReply) *fakeGenerator {
	return &fakeGenerator{replies: replies}
}

func replyText(texts ...string) *fakeGenerator {
	replies := make([]fakeReply, len(texts))
	for i, t := range texts {
		replies[i] = fakeReply{text: t}
	}
	return newFakeGenerator(replies...)
}

func replyErr(err error) *fakeGenerator {
	return newFakeGenerator(fakeReply{err: err})
}

func (f *fakeGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	var r fakeReply
	if len(f.replies) > 0 {
		r = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &GenerateResult{Text: r.text, Sources: r.sources}, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) last() *GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// countingMedium counts writes to the wrapped medium.
type countingMedium struct {
	*MemoryMedium
	mu   sync.Mutex
	puts int
}

func newCountingMedium() *countingMedium {
	return &countingMedium{MemoryMedium: NewMemoryMedium()}
}

func (m *countingMedium) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.puts++
	m.mu.Unlock()
	return m.MemoryMedium.Put(ctx, key, value)
}

func (m *countingMedium) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// gymAnalysisJSON is a typical analysis reply for a gym membership.
const gymAnalysisJSON = `{
  "summary": "36 month gym membership with steep cancellation penalties.",
  "contractType": "Gym Membership",
  "parties": ["Titan Fitness", "Member"],
  "duration": "36 months",
  "totalCost": "R34,200",
  "riskScore": 85,
  "riskLevel": "HIGH",
  "flags": [
    {"type": "RED", "clause": "Member waives all rights under the CPA.", "explanation": "Waiving CPA rights is unenforceable.", "confidence": 95},
    {"type": "YELLOW", "clause": "Fees increase by 15% annually.", "explanation": "Escalation above CPI.", "confidence": 80}
  ],
  "trickery": [
    {"tactic": "Roach Motel", "explanation": "Easy to join, hard to leave.", "counterMove": "Cite section 14 of the CPA.", "confidence": 88}
  ],
  "negotiationPoints": [{"point": "Ask for a 12 month term.", "confidence": 70}]
}`

const counterOfferJSON = `{
  "summary": "24 month membership with a reduced penalty.",
  "contractType": "Gym Membership",
  "parties": ["Titan Fitness", "Member"],
  "duration": "24 months",
  "totalCost": "R22,800",
  "riskScore": 55,
  "riskLevel": "MEDIUM",
  "flags": []
}`
