package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

// Persona fixes who the user is while practising against the AI agent and,
// optionally, which stored contract the agent defends.
type Persona struct {
	ContractID string                `json:"contractId,omitempty"`
	Identity   model.UserIdentity    `json:"identity,omitempty"`
	Tone       model.NegotiationTone `json:"tone,omitempty"`
}

// RoleplayRequest is one text turn. History is held by the client.
type RoleplayRequest struct {
	Persona
	History []model.ChatMessage `json:"history"`
	Message string              `json:"message"`
}

// NegotiationCoach runs text and voice negotiation practice.
type NegotiationCoach struct {
	vault  *Vault
	ai     Generator
	dialer LiveDialer
}

func NewNegotiationCoach(vault *Vault, ai Generator, dialer LiveDialer) *NegotiationCoach {
	return &NegotiationCoach{vault: vault, ai: ai, dialer: dialer}
}

// Instruction builds the agent persona for p. An unknown contract id is
// NotFound.
func (n *NegotiationCoach) Instruction(ctx context.Context, p Persona) (string, error) {
	identity, tone := withDefaults(p.Identity, p.Tone)
	var contractCtx string
	if p.ContractID != "" {
		rec, err := n.vault.Get(ctx, p.ContractID)
		if err != nil {
			return "", err
		}
		contractCtx = contractContext(rec)
	}
	return negotiationInstruction(identity, tone, contractCtx), nil
}

// Reply answers one roleplay turn. Nothing is persisted.
func (n *NegotiationCoach) Reply(ctx context.Context, req *RoleplayRequest) (*model.ChatMessage, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperr.NewValidation("message is required")
	}
	if req.ContractID != "" {
		ctx = logger.With(ctx, logger.ContractIDKey, req.ContractID)
	}
	instruction, err := n.Instruction(ctx, req.Persona)
	if err != nil {
		return nil, err
	}

	res, err := n.ai.Generate(ctx, &GenerateRequest{
		Purpose:           "negotiation",
		SystemInstruction: instruction,
		History:           historyTurns(req.History),
		Parts:             []Part{TextPart(text)},
	})
	if err != nil {
		return nil, err
	}
	return &model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleModel,
		Text:      res.Text,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// StartLive bridges client to a fresh voice session and blocks until either
// side ends it. Both connections are closed on return.
func (n *NegotiationCoach) StartLive(ctx context.Context, p Persona, client FrameConn) error {
	instruction, err := n.Instruction(ctx, p)
	if err != nil {
		_ = client.Close()
		return err
	}
	upstream, err := n.dialer.Dial(ctx, instruction)
	if err != nil {
		_ = client.Close()
		return apperr.NewUnavailable("Could not start the voice session.", err)
	}
	return NewLiveSession(client, upstream).Run(ctx)
}
