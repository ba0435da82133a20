// Package voice transcribes audio attachments by invoking a local whisper
// CLI as a subprocess.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Transcriber turns an audio file into text. On failure implementations
// return both an error and a text result prefixed "ERROR: "; downstream
// consumers of the reply text key off that sentinel.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperTranscriber shells out to a whisper-style CLI that writes a JSON
// transcript file next to the input.
type WhisperTranscriber struct {
	binary string
	model  string
}

func NewWhisperTranscriber(binary, model string) *WhisperTranscriber {
	return &WhisperTranscriber{binary: binary, model: model}
}

type transcriptFile struct {
	Text string `json:"text"`
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	transcriptPath := audioPath + ".json"

	cmd := exec.CommandContext(ctx, t.binary,
		"--model-name", t.model,
		"--file-name", audioPath,
		"--transcript-path", transcriptPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := stderr.String()
		if detail == "" {
			detail = err.Error()
		}
		return "ERROR: " + detail, fmt.Errorf("run %s: %w", t.binary, err)
	}

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "ERROR: " + err.Error(), fmt.Errorf("read transcript: %w", err)
	}
	defer os.Remove(transcriptPath)

	var out transcriptFile
	if err := json.Unmarshal(data, &out); err != nil {
		return "ERROR: " + err.Error(), fmt.Errorf("decode transcript: %w", err)
	}
	return out.Text, nil
}
