package llm

import (
	"Agora/internal/api/config"
	"context"
	"errors"
	log "log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

var ErrEmptyResponse = errors.New("llm returned empty response")

// Generator 文本生成提供方
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LangchainGenerator 基于 langchaingo 的 OpenAI 兼容实现
type LangchainGenerator struct {
	client      llms.Model
	model       string
	temperature float64
	maxTokens   int
	sem         *semaphore.Weighted
}

// NewGenerator 初始化大模型客户端
func NewGenerator(cfg config.LLMConfig) (*LangchainGenerator, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.TextModel),
		openai.WithToken(cfg.ApiKey),
	}
	if cfg.URL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.URL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		log.Error("AI大模型初始化失败", "err", err)
		return nil, err
	}
	return NewGeneratorWithModel(client, cfg), nil
}

// NewGeneratorWithModel 使用给定的 llms.Model
func NewGeneratorWithModel(client llms.Model, cfg config.LLMConfig) *LangchainGenerator {
	return &LangchainGenerator{
		client:      client,
		model:       cfg.TextModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		sem:         newTextSem(cfg.Concurrency),
	}
}

func (g *LangchainGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.fetchModel(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
