package llm

import (
	"context"
	log "log/slog"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms"
)

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Warn("读取prompt文件失败，使用内置prompt", "file", file, "err", err)
		return ""
	}
	return string(data)
}

func (g *LangchainGenerator) fetchModel(ctx context.Context, systemPrompt string, userPrompt string) (*llms.ContentResponse, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	start := time.Now()
	log.InfoContext(ctx, "正在请求AI大模型", "model", g.model)
	resp, err := g.client.GenerateContent(ctx, messages,
		llms.WithModel(g.model),
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		log.ErrorContext(ctx, "AI大模型请求失败", "latency", time.Since(start), "err", err)
		return nil, err
	}
	log.InfoContext(ctx, "AI大模型请求完成", "latency", time.Since(start))
	return resp, nil
}
