package httptransport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/voice"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
)

// Language is one entry in the supported-language catalog.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// languageCatalog lists the languages the default provider chains handle.
var languageCatalog = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ru", Name: "Russian"},
}

// Service owns the REST handlers.
type Service struct {
	registry *providers.Registry
	manager  *session.Manager
	voices   *voice.Store
	started  time.Time
}

// NewService builds the REST service. voices may be nil when the profile
// store is disabled; the voice routes then report service unavailable.
func NewService(registry *providers.Registry, manager *session.Manager, voices *voice.Store) *Service {
	return &Service{
		registry: registry,
		manager:  manager,
		voices:   voices,
		started:  time.Now(),
	}
}

// RegisterRoutes attaches the REST endpoints. Voice profile mutations go on
// the secured group when auth is enabled.
func (s *Service) RegisterRoutes(router *Router) {
	router.API.GET("/health", s.health)
	router.API.GET("/languages", s.languages)

	router.Secured.GET("/voices", s.listVoices)
	router.Secured.POST("/voices", s.saveVoice)
	router.Secured.DELETE("/voices/:name", s.deleteVoice)
}

func (s *Service) health(c *gin.Context) {
	stats := gin.H{
		"status":      "ok",
		"uptime_sec":  int(time.Since(s.started).Seconds()),
		"connections": s.manager.Count(),
		"providers":   s.registry.Availability(),
	}

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats["cpu_percent"] = cpuPercents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memory_percent"] = vm.UsedPercent
	}

	RespondSuccess(c, http.StatusOK, stats, "")
}

func (s *Service) languages(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, languageCatalog, "")
}

func (s *Service) listVoices(c *gin.Context) {
	if s.voices == nil {
		RespondError(c, http.StatusServiceUnavailable, "voice profiles disabled", nil)
		return
	}

	profiles, err := s.voices.List(c.Request.Context(), c.Query("language"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, profiles, "")
}

type saveVoiceRequest struct {
	Name     string         `json:"name" binding:"required"`
	Language string         `json:"language" binding:"required"`
	Voice    string         `json:"voice" binding:"required"`
	Provider string         `json:"provider"`
	Settings map[string]any `json:"settings"`
}

func (s *Service) saveVoice(c *gin.Context) {
	if s.voices == nil {
		RespondError(c, http.StatusServiceUnavailable, "voice profiles disabled", nil)
		return
	}

	var req saveVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	settings, err := voice.EncodeSettings(req.Settings)
	if err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	profile := &voice.Profile{
		Name:     req.Name,
		Language: req.Language,
		Voice:    req.Voice,
		Provider: req.Provider,
		Settings: settings,
	}
	if err := s.voices.Save(c.Request.Context(), profile); err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, profile, "saved")
}

func (s *Service) deleteVoice(c *gin.Context) {
	if s.voices == nil {
		RespondError(c, http.StatusServiceUnavailable, "voice profiles disabled", nil)
		return
	}

	err := s.voices.Delete(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.IsKind(err, errors.KindStorage) {
			RespondError(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "deleted")
}
