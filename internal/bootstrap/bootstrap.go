// Package bootstrap wires configuration, logging, stores, the provider
// registry and both transports into a running server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/audio"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/glossary"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/pipeline"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/voice"
	platformconfig "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	platformerrors "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	platformlogging "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	platformobservability "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/observability"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
	httptransport "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/transport/http"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/transport/ws"

	// Provider adapters self-register with their stage factories.
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt/mock"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt/openai"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate/mock"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate/openai"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts/edge"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts/mock"
	_ "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts/openai"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID      string
	Title   string
	Kind    platformerrors.Kind
	Execute stepFn
}

type appState struct {
	config        *platformconfig.Config
	configPath    string
	logger        *platformlogging.Logger
	glossaryStore glossary.Store
	voiceStore    *voice.Store
	registry      *providers.Registry
	manager       *session.Manager
	segmenter     *audio.Segmenter
	coordinator   *pipeline.Coordinator
	dispatcher    *ws.Dispatcher
	hub           *ws.Hub
	wsServer      *ws.Server
	httpServer    *httptransport.Server
}

// InitGraph returns the ordered bootstrap steps.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:      "logging:init",
			Title:   "Initialise logging",
			Kind:    platformerrors.KindBootstrap,
			Execute: initLoggingStep,
		},
		{
			ID:      "observability:setup",
			Title:   "Set up observability hooks",
			Kind:    platformerrors.KindBootstrap,
			Execute: setupObservabilityStep,
		},
		{
			ID:      "storage:init",
			Title:   "Initialise glossary and voice stores",
			Kind:    platformerrors.KindStorage,
			Execute: initStoresStep,
		},
		{
			ID:      "providers:build",
			Title:   "Build provider registry",
			Kind:    platformerrors.KindBootstrap,
			Execute: buildRegistryStep,
		},
		{
			ID:      "domain:init",
			Title:   "Initialise session, segmenter and pipeline",
			Kind:    platformerrors.KindBootstrap,
			Execute: initDomainStep,
		},
		{
			ID:      "transport:init",
			Title:   "Initialise websocket and http transports",
			Kind:    platformerrors.KindBootstrap,
			Execute: initTransportStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger

	if state.configPath != "" {
		logger.InfoTag("Bootstrap", "configuration loaded from %s", state.configPath)
	} else {
		logger.InfoTag("Bootstrap", "no config file found, using defaults")
	}
	return nil
}

func setupObservabilityStep(_ context.Context, state *appState) error {
	platformobservability.Setup(state.logger.Slog())
	return nil
}

func initStoresStep(_ context.Context, state *appState) error {
	cfg := state.config

	store, err := glossary.New(glossary.Config{
		Driver: cfg.Glossary.Type,
		Redis: &glossary.RedisConfig{
			Addr:     cfg.Glossary.Redis.Addr,
			Username: cfg.Glossary.Redis.Username,
			Password: cfg.Glossary.Redis.Password,
			DB:       cfg.Glossary.Redis.DB,
			Prefix:   cfg.Glossary.Redis.Prefix,
		},
	})
	if err != nil {
		return err
	}
	state.glossaryStore = store

	voices, err := voice.NewStore(cfg.Voice.DSN)
	if err != nil {
		return err
	}
	state.voiceStore = voices
	return nil
}

// buildRegistryStep instantiates the configured adapter chains in preference
// order. Unavailable adapters still register; the registry skips them per
// call so credentials added later take effect after a restart only.
func buildRegistryStep(_ context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger
	registry := providers.NewRegistry(logger)

	for _, name := range cfg.Selected.STT {
		providerCfg, ok := cfg.STT[name]
		if !ok {
			return fmt.Errorf("selected STT provider %q has no config section", name)
		}
		provider, err := stt.Create(name, providerCfg, logger)
		if err != nil {
			return err
		}
		if err := provider.Initialize(); err != nil {
			return err
		}
		if err := registry.Register(providers.CapabilitySTT, provider); err != nil {
			return err
		}
	}

	for _, name := range cfg.Selected.Translation {
		providerCfg, ok := cfg.Translation[name]
		if !ok {
			return fmt.Errorf("selected translation provider %q has no config section", name)
		}
		provider, err := translate.Create(name, providerCfg, logger)
		if err != nil {
			return err
		}
		if err := provider.Initialize(); err != nil {
			return err
		}
		if err := registry.Register(providers.CapabilityTranslation, provider); err != nil {
			return err
		}
	}

	for _, name := range cfg.Selected.TTS {
		providerCfg, ok := cfg.TTS[name]
		if !ok {
			return fmt.Errorf("selected TTS provider %q has no config section", name)
		}
		provider, err := tts.Create(name, providerCfg, logger)
		if err != nil {
			return err
		}
		if err := provider.Initialize(); err != nil {
			return err
		}
		if err := registry.Register(providers.CapabilityTTS, provider); err != nil {
			return err
		}
	}

	state.registry = registry
	return nil
}

func initDomainStep(_ context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger

	manager := session.NewManager(session.Options{
		IdleTimeout:   cfg.Session.IdleTimeout(),
		SweepInterval: cfg.Session.SweepInterval(),
		MaxExchanges:  cfg.Context.MaxExchanges,
	}, state.glossaryStore, logger)

	dispatcher := ws.NewDispatcher()
	coordinator := pipeline.NewCoordinator(pipeline.Options{
		STTTimeout:       cfg.Pipeline.STTTimeout(),
		TranslateTimeout: cfg.Pipeline.TranslateTimeout(),
		TTSTimeout:       cfg.Pipeline.TTSTimeout(),
	}, state.registry, dispatcher, logger)

	segmenter := audio.NewSegmenter(audio.Options{
		SilenceThreshold: cfg.Audio.SilenceThresholdBytes,
		MinSegmentBytes:  cfg.Audio.MinSegmentBytes,
		FlushInterval:    cfg.Audio.FlushInterval(),
	}, func(connID string, segment []byte) {
		if s, err := manager.Get(connID); err == nil && s.Recording() {
			coordinator.Run(s, segment)
		}
	}, logger)

	state.manager = manager
	state.dispatcher = dispatcher
	state.coordinator = coordinator
	state.segmenter = segmenter
	return nil
}

func initTransportStep(_ context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger

	deps := ws.HandlerDeps{
		Manager:         state.manager,
		Segmenter:       state.segmenter,
		Coordinator:     state.coordinator,
		Dispatcher:      state.dispatcher,
		Voices:          state.voiceStore,
		Logger:          logger,
		MinSegmentBytes: cfg.Audio.MinSegmentBytes,
	}

	hub := ws.NewHub(logger)
	routerOpts := ws.RouterOptions{}
	if cfg.Server.Auth.Enabled {
		routerOpts.AuthSecret = cfg.Server.Auth.Secret
	}
	router := ws.NewRouter(hub, logger, routerOpts)
	router.SetHandlerBuilder(func(conn *ws.Connection, _ *http.Request) (ws.SessionHandler, error) {
		return ws.NewHandler(conn, deps)
	})

	state.manager.OnEvict(ws.EvictCleanup(deps, hub))

	state.hub = hub
	state.wsServer = ws.NewServer(ws.ServerConfig{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port),
		Path: cfg.Server.Path,
	}, router, hub, logger)

	if cfg.Web.Enabled {
		var authMiddleware gin.HandlerFunc
		if cfg.Server.Auth.Enabled {
			authMiddleware = httptransport.BearerAuth(cfg.Server.Auth.Secret)
		}
		httpRouter, err := httptransport.Build(httptransport.Options{
			Debug:          cfg.Log.Level == "debug",
			Logger:         logger,
			AuthMiddleware: authMiddleware,
		})
		if err != nil {
			return err
		}
		httptransport.NewService(state.registry, state.manager, state.voiceStore).RegisterRoutes(httpRouter)
		state.httpServer = httptransport.NewServer(
			fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Web.Port), httpRouter, logger)
	}
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	for _, step := range steps {
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
	}
	return nil
}

// Run starts the full service lifecycle and blocks until shutdown.
func Run(ctx context.Context) error {
	state := &appState{}
	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer logger.Close()
	defer state.cleanup()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state.manager.Start()
	defer state.manager.Stop()

	group, groupCtx := errgroup.WithContext(rootCtx)
	group.Go(func() error {
		return state.wsServer.Start(groupCtx)
	})
	if state.httpServer != nil {
		group.Go(func() error {
			return state.httpServer.Start(groupCtx)
		})
	}

	logger.InfoTag("Bootstrap", "server started")

	<-signalCtx.Done()
	logger.InfoTag("Bootstrap", "shutdown signal received")
	cancel()

	if err := group.Wait(); err != nil {
		return err
	}
	logger.InfoTag("Bootstrap", "server stopped")
	return nil
}

// cleanup releases stores and provider resources in reverse init order.
func (s *appState) cleanup() {
	if s.registry != nil {
		for _, capability := range []providers.Capability{
			providers.CapabilitySTT,
			providers.CapabilityTranslation,
			providers.CapabilityTTS,
		} {
			for _, adapter := range s.registry.Adapters(capability) {
				if err := adapter.Cleanup(); err != nil && s.logger != nil {
					s.logger.WarnTag("Bootstrap", "adapter %s cleanup failed: %v", adapter.Name(), err)
				}
			}
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.voiceStore != nil {
		if err := s.voiceStore.Close(); err != nil && s.logger != nil {
			s.logger.WarnTag("Bootstrap", "voice store close failed: %v", err)
		}
	}
	if s.glossaryStore != nil {
		if err := s.glossaryStore.Close(shutdownCtx); err != nil && s.logger != nil {
			s.logger.WarnTag("Bootstrap", "glossary store close failed: %v", err)
		}
	}
}
