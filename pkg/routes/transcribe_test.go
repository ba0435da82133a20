package routes

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeReplier struct {
	chatID    string
	messageID string
	content   string
	calls     int
	err       error
}

func (r *fakeReplier) Reply(_ context.Context, chatID, messageID, content string) error {
	r.calls++
	r.chatID = chatID
	r.messageID = messageID
	r.content = content
	return r.err
}

type fakeTranscriber struct {
	text      string
	err       error
	audioPath string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.audioPath = audioPath
	return f.text, f.err
}

func audioEvent(t *testing.T, payload []byte) string {
	t.Helper()
	return `{
		"dataType": "media",
		"data": {
			"message": {
				"type": "audio",
				"from": "111@c.us",
				"id": {"id": "msg-9", "remote": "g@g.us"}
			},
			"messageMedia": {"data": "` + base64.StdEncoding.EncodeToString(payload) + `"}
		}
	}`
}

func TestTranscribeRoute_IsApplicable(t *testing.T) {
	r := NewTranscribeRoute(nil, nil, "")

	ok, err := r.IsApplicable(parseEvent(t, audioEvent(t, []byte("x"))))
	if err != nil || !ok {
		t.Errorf("audio media: got (%v, %v), want (true, nil)", ok, err)
	}

	ok, _ = r.IsApplicable(parseEvent(t, `{
		"dataType": "media",
		"data": {
			"message": {"type": "image", "id": {"remote": "g"}},
			"messageMedia": {"data": "aGk="}
		}
	}`))
	if ok {
		t.Error("image media must not match")
	}

	ok, _ = r.IsApplicable(parseEvent(t, `{
		"dataType": "message",
		"data": {"message": {"type": "audio", "body": "x", "id": {"remote": "g"}}}
	}`))
	if ok {
		t.Error("non-media event must not match")
	}
}

func TestTranscribeRoute_RepliesWithTranscription(t *testing.T) {
	tmpDir := t.TempDir()
	replier := &fakeReplier{}
	transcriber := &fakeTranscriber{text: "hello from audio"}
	r := NewTranscribeRoute(replier, transcriber, tmpDir)

	payload := []byte("fake-ogg-bytes")
	ev := parseEvent(t, audioEvent(t, payload))

	if err := r.Process(context.Background(), ev); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if replier.calls != 1 {
		t.Fatalf("replies: got %d, want 1", replier.calls)
	}
	if replier.content != "TRANSCRIPTION: hello from audio" {
		t.Errorf("content: got %q", replier.content)
	}
	if replier.chatID != "111@c.us" || replier.messageID != "msg-9" {
		t.Errorf("reply addressing: got chat=%q msg=%q", replier.chatID, replier.messageID)
	}

	// The decoded audio file is cleaned up after the reply.
	if _, err := os.Stat(transcriber.audioPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected audio file removed, stat err: %v", err)
	}
	if filepath.Dir(transcriber.audioPath) != tmpDir {
		t.Errorf("audio file written outside tmp dir: %q", transcriber.audioPath)
	}
}

func TestTranscribeRoute_FailureSendsSentinel(t *testing.T) {
	replier := &fakeReplier{}
	transcriber := &fakeTranscriber{text: "ERROR: model exploded", err: errors.New("model exploded")}
	r := NewTranscribeRoute(replier, transcriber, t.TempDir())

	ev := parseEvent(t, audioEvent(t, []byte("x")))
	if err := r.Process(context.Background(), ev); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if replier.content != "TRANSCRIPTION: ERROR: model exploded" {
		t.Errorf("content: got %q, want the sentinel reply", replier.content)
	}
}

func TestTranscribeRoute_BadBase64(t *testing.T) {
	replier := &fakeReplier{}
	r := NewTranscribeRoute(replier, &fakeTranscriber{}, t.TempDir())

	ev := parseEvent(t, `{
		"dataType": "media",
		"data": {
			"message": {"type": "audio", "id": {"id": "m", "remote": "g"}},
			"messageMedia": {"data": "!!!not-base64!!!"}
		}
	}`)

	if err := r.Process(context.Background(), ev); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
	if replier.calls != 0 {
		t.Error("no reply should go out when the payload cannot be decoded")
	}
}
