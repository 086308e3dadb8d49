package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

const (
	// InputAudioMime is what the browser streams up: 16 kHz mono PCM.
	InputAudioMime = "audio/pcm;rate=16000"
	// OutputSampleRate is the rate of PCM frames sent back down.
	OutputSampleRate = 24000

	liveSetupTimeout = 15 * time.Second
	maxFrameSize     = 1 << 20
)

// Text events sent to the browser alongside binary audio frames.
var (
	eventInterrupted  = []byte(`{"type":"interrupted"}`)
	eventTurnComplete = []byte(`{"type":"turn_complete"}`)
)

// errSessionEnded marks a pump that stopped because its peer hung up.
var errSessionEnded = errors.New("live session ended")

// FrameConn is a message-oriented duplex connection. *websocket.Conn
// satisfies it.
type FrameConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// LiveDialer opens an upstream voice session primed with instruction.
type LiveDialer interface {
	Dial(ctx context.Context, instruction string) (FrameConn, error)
}

type liveSetup struct {
	Setup struct {
		Model            string `json:"model"`
		GenerationConfig struct {
			ResponseModalities []string `json:"responseModalities"`
			SpeechConfig       struct {
				VoiceConfig struct {
					PrebuiltVoiceConfig struct {
						VoiceName string `json:"voiceName"`
					} `json:"prebuiltVoiceConfig"`
				} `json:"voiceConfig"`
			} `json:"speechConfig"`
		} `json:"generationConfig"`
		SystemInstruction geminiContent `json:"systemInstruction"`
	} `json:"setup"`
}

type liveInput struct {
	RealtimeInput struct {
		MediaChunks []geminiBlob `json:"mediaChunks"`
	} `json:"realtimeInput"`
}

type liveServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				InlineData *geminiBlob `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"modelTurn,omitempty"`
		Interrupted  bool `json:"interrupted,omitempty"`
		TurnComplete bool `json:"turnComplete,omitempty"`
	} `json:"serverContent,omitempty"`
}

// GeminiLiveDialer connects to the Live API over a websocket.
type GeminiLiveDialer struct {
	config *config.GeminiConfig
	dialer *websocket.Dialer
}

func NewGeminiLiveDialer(cfg *config.GeminiConfig) *GeminiLiveDialer {
	return &GeminiLiveDialer{
		config: cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: liveSetupTimeout},
	}
}

// Dial opens the socket, sends the setup message and waits for setupComplete.
func (d *GeminiLiveDialer) Dial(ctx context.Context, instruction string) (FrameConn, error) {
	if d.config.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	u, err := url.Parse(d.config.LiveURL)
	if err != nil {
		return nil, fmt.Errorf("invalid live url: %w", err)
	}
	q := u.Query()
	q.Set("key", d.config.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := d.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial live api: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)

	var setup liveSetup
	model := d.config.LiveModel
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	setup.Setup.Model = model
	setup.Setup.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	setup.Setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = d.config.Voice
	setup.Setup.SystemInstruction = geminiContent{Parts: []geminiPart{{Text: instruction}}}

	_ = conn.SetWriteDeadline(time.Now().Add(liveSetupTimeout))
	if err := conn.WriteJSON(&setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send live setup: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(liveSetupTimeout))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("live setup not acknowledged: %w", err)
		}
		var msg liveServerMessage
		if json.Unmarshal(data, &msg) == nil && msg.SetupComplete != nil {
			break
		}
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

// LiveSession relays audio between a browser socket and an upstream session.
type LiveSession struct {
	client    FrameConn
	upstream  FrameConn
	closeOnce sync.Once
}

func NewLiveSession(client, upstream FrameConn) *LiveSession {
	return &LiveSession{client: client, upstream: upstream}
}

// close tears down both sides. Safe to call from any exit path.
func (s *LiveSession) close() {
	s.closeOnce.Do(func() {
		_ = s.upstream.Close()
		_ = s.client.Close()
	})
}

// Run pumps frames both ways until a peer disconnects, a pump fails or ctx
// is cancelled. Both connections are always closed on return. A normal
// hang-up returns nil.
func (s *LiveSession) Run(ctx context.Context) error {
	liveSessionsActive.Inc()
	defer liveSessionsActive.Dec()
	defer s.close()

	started := time.Now()
	logger.Info(ctx, "live session started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.pumpUp)
	g.Go(s.pumpDown)
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks whichever pump is still reading.
		s.close()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, errSessionEnded) || ctx.Err() != nil {
		err = nil
	}
	logger.Info(ctx, "live session ended", "duration_ms", time.Since(started).Milliseconds(), "error", err)
	return err
}

// pumpUp forwards browser PCM frames upstream.
func (s *LiveSession) pumpUp() error {
	for {
		typ, data, err := s.client.ReadMessage()
		if err != nil {
			return errSessionEnded
		}
		if typ != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		var in liveInput
		in.RealtimeInput.MediaChunks = []geminiBlob{{
			MimeType: InputAudioMime,
			Data:     base64.StdEncoding.EncodeToString(data),
		}}
		payload, err := json.Marshal(&in)
		if err != nil {
			return fmt.Errorf("failed to encode audio chunk: %w", err)
		}
		if err := s.upstream.WriteMessage(websocket.TextMessage, payload); err != nil {
			return fmt.Errorf("failed to forward audio: %w", err)
		}
	}
}

// pumpDown forwards model audio and turn events to the browser.
func (s *LiveSession) pumpDown() error {
	for {
		_, data, err := s.upstream.ReadMessage()
		if err != nil {
			return errSessionEnded
		}
		var msg liveServerMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ServerContent == nil {
			continue
		}
		sc := msg.ServerContent
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData == nil || p.InlineData.Data == "" {
					continue
				}
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					continue
				}
				if err := s.client.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
					return errSessionEnded
				}
			}
		}
		if sc.Interrupted {
			if err := s.client.WriteMessage(websocket.TextMessage, eventInterrupted); err != nil {
				return errSessionEnded
			}
		}
		if sc.TurnComplete {
			if err := s.client.WriteMessage(websocket.TextMessage, eventTurnComplete); err != nil {
				return errSessionEnded
			}
		}
	}
}
