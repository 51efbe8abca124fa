package eventbus

// Topics published by the pipeline and session layers.
const (
	EventTranscription = "pipeline:transcription"
	EventTranslation   = "pipeline:translation"
	EventPipelineError = "pipeline:error"

	EventSessionStarted = "session:started"
	EventSessionStopped = "session:stopped"
	EventSessionEvicted = "session:evicted"
)

// TranscriptionEventData mirrors the transcription event sent to the client.
type TranscriptionEventData struct {
	SessionID  string  `json:"session_id"`
	CaptionID  string  `json:"caption_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// TranslationEventData mirrors the translation event sent to the client.
type TranslationEventData struct {
	SessionID  string  `json:"session_id"`
	CaptionID  string  `json:"caption_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	HasAudio   bool    `json:"has_audio"`
}

// PipelineErrorEventData describes a failed pipeline stage.
type PipelineErrorEventData struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// SessionEventData describes session lifecycle transitions.
type SessionEventData struct {
	SessionID      string `json:"session_id"`
	ConnectionID   string `json:"connection_id"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}
