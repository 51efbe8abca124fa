// Package providers defines the capability model shared by the STT,
// Translation and TTS adapter packages, and the registry that coordinates
// ordered fallback across them.
package providers

// Capability names one pipeline stage.
type Capability string

const (
	CapabilitySTT         Capability = "stt"
	CapabilityTranslation Capability = "translation"
	CapabilityTTS         Capability = "tts"
)

// Adapter is the base contract every provider adapter satisfies. Available
// must be a cheap local check (credential presence), never a network probe.
type Adapter interface {
	Name() string
	Available() bool
	Initialize() error
	Cleanup() error
}

// AdapterStatus reports an adapter's position and availability for the
// health endpoint.
type AdapterStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}
