package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

// ChatFailureText is stored as the model turn when the AI call fails.
const ChatFailureText = "Sorry, I'm having trouble connecting right now. Please try again."

// ChatStore keeps every transcript in one blob keyed by conversation id.
type ChatStore struct {
	doc *Document[map[string][]model.ChatMessage]
	now func() time.Time
}

func NewChatStore(medium Medium) *ChatStore {
	return &ChatStore{
		doc: NewDocument[map[string][]model.ChatMessage](medium, KeyChats),
		now: time.Now,
	}
}

// History returns the transcript in append order, empty when none exists.
func (s *ChatStore) History(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	all, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	msgs := all[conversationID]
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

// Append adds a message to the end of the transcript, assigning id and time.
func (s *ChatStore) Append(ctx context.Context, conversationID string, role model.ChatRole, text string, sources []model.GroundingSource) (model.ChatMessage, error) {
	msg := model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
		Sources:   sources,
	}
	err := s.doc.Mutate(ctx, func(all map[string][]model.ChatMessage) (map[string][]model.ChatMessage, bool, error) {
		if all == nil {
			all = make(map[string][]model.ChatMessage)
		}
		all[conversationID] = append(all[conversationID], msg)
		return all, true, nil
	})
	if err != nil {
		return model.ChatMessage{}, err
	}
	return msg, nil
}

// Clear drops a transcript. Clearing an unknown id writes nothing.
func (s *ChatStore) Clear(ctx context.Context, conversationID string) error {
	return s.doc.Mutate(ctx, func(all map[string][]model.ChatMessage) (map[string][]model.ChatMessage, bool, error) {
		if _, ok := all[conversationID]; !ok {
			return all, false, nil
		}
		delete(all, conversationID)
		return all, true, nil
	})
}

// ChatReply is the pair of messages one send produces.
type ChatReply struct {
	User  model.ChatMessage `json:"user"`
	Reply model.ChatMessage `json:"reply"`
}

// ChatService answers questions about a stored contract or, under the
// general conversation id, about South African consumer law.
type ChatService struct {
	store *ChatStore
	vault *Vault
	ai    Generator
	turns *keyedLock
}

func NewChatService(store *ChatStore, vault *Vault, ai Generator) *ChatService {
	return &ChatService{store: store, vault: vault, ai: ai, turns: newKeyedLock()}
}

func (s *ChatService) History(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	return s.store.History(ctx, conversationID)
}

func (s *ChatService) Clear(ctx context.Context, conversationID string) error {
	return s.store.Clear(ctx, conversationID)
}

// Send persists the user message, asks the model and persists its answer.
// Sends to one conversation run one at a time, so the transcript keeps send
// order. On AI failure an apology is stored as the model turn and the error
// is returned.
func (s *ChatService) Send(ctx context.Context, conversationID, text string) (*ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.NewValidation("message text is required")
	}
	ctx = logger.With(ctx, logger.ConversationIDKey, conversationID)

	instruction, err := s.instructionFor(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	release, err := s.turns.acquire(ctx, conversationID)
	if err != nil {
		return nil, apperr.NewUnavailable("Request cancelled.", err)
	}
	defer release()

	history, err := s.store.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	userMsg, err := s.store.Append(ctx, conversationID, model.RoleUser, text, nil)
	if err != nil {
		return nil, err
	}

	res, aiErr := s.ai.Generate(ctx, &GenerateRequest{
		Purpose:           "chat",
		SystemInstruction: instruction,
		History:           historyTurns(history),
		Parts:             []Part{TextPart(text)},
		Search:            true,
	})
	if aiErr != nil {
		logger.Warn(ctx, "chat turn failed", "error", aiErr)
		// The apology must land even if the request context is gone.
		failed, err := s.store.Append(context.WithoutCancel(ctx), conversationID, model.RoleModel, ChatFailureText, nil)
		if err != nil {
			return nil, err
		}
		return &ChatReply{User: userMsg, Reply: failed}, aiErr
	}

	reply, err := s.store.Append(ctx, conversationID, model.RoleModel, res.Text, ingest.DedupSources(res.Sources))
	if err != nil {
		return nil, err
	}
	return &ChatReply{User: userMsg, Reply: reply}, nil
}

func (s *ChatService) instructionFor(ctx context.Context, conversationID string) (string, error) {
	if conversationID == model.GeneralConversationID {
		return conciergeSystemInstruction, nil
	}
	rec, err := s.vault.Get(ctx, conversationID)
	if err != nil {
		return "", err
	}
	ctx = logger.With(ctx, logger.ContractIDKey, rec.ID)
	logger.Debug(ctx, "chat bound to contract", "provider", rec.ProviderName)
	return documentAssistantInstruction(rec), nil
}

func historyTurns(msgs []model.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Parts: []Part{TextPart(m.Text)}})
	}
	return turns
}

// keyedLock is a set of one-slot semaphores, one per key. Acquire honours
// context cancellation while waiting.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*lockSlot)}
}

func (k *keyedLock) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				k.unref(key, slot)
			})
		}, nil
	case <-ctx.Done():
		k.unref(key, slot)
		return nil, ctx.Err()
	}
}

func (k *keyedLock) unref(key string, slot *lockSlot) {
	k.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
