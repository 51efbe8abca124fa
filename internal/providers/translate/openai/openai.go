// Package openai implements translation over the OpenAI chat completion API.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
)

func init() {
	translate.Register("openai", NewProvider)
}

type Provider struct {
	name   string
	cfg    config.TranslationConfig
	client *openai.Client
	logger *logging.Logger
}

func NewProvider(name string, cfg config.TranslationConfig, logger *logging.Logger) (translate.Provider, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		name:   name,
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Available() bool { return p.cfg.APIKey != "" }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return translate.Result{}, fmt.Errorf("empty text")
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.ModelName,
		Temperature: float32(p.cfg.Temperature),
		MaxTokens:   p.cfg.MaxTokens,
		Messages:    buildMessages(req),
	})
	if err != nil {
		return translate.Result{}, err
	}
	if len(resp.Choices) == 0 {
		return translate.Result{}, fmt.Errorf("no completion choices returned")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if p.logger != nil {
		p.logger.DebugTag("Translate", "openai translated %d chars in %v", len(req.Text), time.Since(start))
	}

	return translate.Result{
		Text:       translated,
		Confidence: 0.95,
	}, nil
}

// buildMessages renders the system instruction with glossary terms and the
// bounded history as alternating user/assistant turns, so the model keeps
// terminology and referents consistent across one session.
func buildMessages(req translate.Request) []openai.ChatCompletionMessage {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"You are a professional simultaneous interpreter. Translate from %s to %s. "+
			"Reply with the translation only, no commentary.",
		req.SourceLanguage, req.TargetLanguage)

	if len(req.Prompt.Glossary) > 0 {
		terms := make([]string, 0, len(req.Prompt.Glossary))
		for term := range req.Prompt.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		sb.WriteString(" Always translate these terms exactly as given:")
		for _, term := range terms {
			fmt.Fprintf(&sb, " %q -> %q;", term, req.Prompt.Glossary[term])
		}
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: sb.String()},
	}

	for _, exchange := range req.Prompt.History {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: exchange.Source},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: exchange.Translated},
		)
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
}
