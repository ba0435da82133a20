package routes

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/voice"
)

// Replier is the slice of the bridge API the transcription route needs.
type Replier interface {
	Reply(ctx context.Context, chatID, messageID, content string) error
}

// TranscribeRoute answers audio messages with their transcription, quoted
// onto the original message. Failures are reported in-band with the
// "ERROR: " sentinel the transcriber emits.
type TranscribeRoute struct {
	backend     Replier
	transcriber voice.Transcriber
	tmpDir      string
}

func NewTranscribeRoute(backend Replier, transcriber voice.Transcriber, tmpDir string) *TranscribeRoute {
	return &TranscribeRoute{
		backend:     backend,
		transcriber: transcriber,
		tmpDir:      tmpDir,
	}
}

func (r *TranscribeRoute) IsApplicable(ev *events.InboundEvent) (bool, error) {
	return ev.Kind == events.KindMedia && ev.Subtype == "audio", nil
}

func (r *TranscribeRoute) Process(ctx context.Context, ev *events.InboundEvent) error {
	encoded, err := ev.Media()
	if err != nil {
		return err
	}

	audioPath, err := r.saveAudio(encoded)
	if err != nil {
		return err
	}
	defer os.Remove(audioPath)

	text, err := r.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		// The sentinel text still goes out as the reply.
		logger.ErrorCF("routes", "Transcription failed", map[string]any{
			"chat_id": ev.ChatID,
			"error":   err.Error(),
		})
	}

	if err := r.backend.Reply(ctx, ev.ChatID, ev.MessageID, "TRANSCRIPTION: "+text); err != nil {
		logger.ErrorCF("routes", "Transcription reply failed", map[string]any{
			"chat_id": ev.ChatID,
			"error":   err.Error(),
		})
	}
	return nil
}

func (r *TranscribeRoute) saveAudio(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode audio payload: %w", err)
	}
	if err := os.MkdirAll(r.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio tmp dir: %w", err)
	}
	path := filepath.Join(r.tmpDir, uuid.New().String())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return path, nil
}
