package ws

import (
	"encoding/json"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
)

// Client control message types.
const (
	TypeSessionStart = "session:start"
	TypeSessionStop  = "session:stop"
	TypeAudioStart   = "audio:start"
	TypeAudioStop    = "audio:stop"
	TypeAudioSilence = "audio:silence"
	TypeConfigUpdate = "config:update"
)

// Server event types.
const (
	EventConnected      = "connected"
	EventSessionStarted = "session:started"
	EventSessionStopped = "session:stopped"
	EventAudioStarted   = "audio:started"
	EventAudioStopped   = "audio:stopped"
	EventConfigUpdated  = "config:updated"
	EventTranscription  = "transcription"
	EventTranslation    = "translation"
	EventError          = "error"
)

// envelope is the wire shape of every JSON control frame in both directions.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ClientEvent is the closed set of decoded client control messages. Each
// variant is matched exhaustively in the handler; there is no unknown-type
// branch past decoding.
type ClientEvent interface {
	isClientEvent()
}

// SessionStart opens a translation session on the connection.
type SessionStart struct {
	SessionID      string `json:"sessionId,omitempty"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// SessionStop ends the active session, keeping the connection.
type SessionStop struct{}

// AudioStart begins a recording turn.
type AudioStart struct{}

// AudioStop ends a recording turn and forces a segment flush.
type AudioStop struct{}

// AudioSilence is a client-side silence hint carrying the detection time.
type AudioSilence struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// ConfigUpdate changes languages, voice, or glossary terms mid-session.
type ConfigUpdate struct {
	SourceLanguage string            `json:"sourceLanguage,omitempty"`
	TargetLanguage string            `json:"targetLanguage,omitempty"`
	VoiceProfile   string            `json:"voiceProfile,omitempty"`
	Voice          string            `json:"voice,omitempty"`
	Glossary       map[string]string `json:"glossary,omitempty"`
}

func (SessionStart) isClientEvent() {}
func (SessionStop) isClientEvent()  {}
func (AudioStart) isClientEvent()   {}
func (AudioStop) isClientEvent()    {}
func (AudioSilence) isClientEvent() {}
func (ConfigUpdate) isClientEvent() {}

// DecodeClientMessage parses one JSON control frame into its typed variant.
// Unparseable frames and unknown types return a malformed-message error; the
// connection is kept open by the caller.
func DecodeClientMessage(payload []byte) (ClientEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(errors.KindMalformedMessage, "ws.DecodeClientMessage", "unparseable control frame", err)
	}

	decode := func(v any) error {
		if len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return errors.Wrap(errors.KindMalformedMessage, "ws.DecodeClientMessage", "bad payload for "+env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case TypeSessionStart:
		var ev SessionStart
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeSessionStop:
		return SessionStop{}, nil
	case TypeAudioStart:
		return AudioStart{}, nil
	case TypeAudioStop:
		return AudioStop{}, nil
	case TypeAudioSilence:
		var ev AudioSilence
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeConfigUpdate:
		var ev ConfigUpdate
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, errors.New(errors.KindMalformedMessage, "ws.DecodeClientMessage", "unknown message type: "+env.Type)
	}
}

// Server event payloads.

type ConnectedData struct {
	ClientID string `json:"clientId"`
}

type SessionStartedData struct {
	SessionID      string `json:"sessionId"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type ConfigUpdatedData struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Voice          string `json:"voice,omitempty"`
}

type TranscriptionData struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"isFinal"`
	Timestamp  int64   `json:"timestamp"`
}

type TranslationData struct {
	CaptionID      string  `json:"captionId"`
	TranslatedText string  `json:"translatedText"`
	Confidence     float64 `json:"confidence"`
	AudioData      []byte  `json:"audioData,omitempty"`
	AudioFormat    string  `json:"audioFormat,omitempty"`
	DurationMs     int64   `json:"durationMs,omitempty"`
}

type ErrorData struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// EncodeServerEvent marshals one outbound event with the send timestamp.
func EncodeServerEvent(eventType string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(errors.KindTransport, "ws.EncodeServerEvent", "marshal "+eventType, err)
		}
		raw = b
	}
	return json.Marshal(envelope{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
	})
}
