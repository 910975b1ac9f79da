package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "autopen-api/internal/domain/service"
	wfmodel "autopen-api/internal/workflow/model"
	"autopen-api/internal/workflow/node"
	workflowport "autopen-api/internal/workflow/port"
	workflowprompt "autopen-api/internal/workflow/prompt"
)

type ChapterChain struct {
	factory workflowport.ChatModelFactory
}

func NewChapterChain(factory workflowport.ChatModelFactory) *ChapterChain {
	return &ChapterChain{factory: factory}
}

func (c *ChapterChain) Invoke(ctx context.Context, in *wfmodel.ChapterGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.ChapterTitle) == "" {
		return nil, fmt.Errorf("chapter title is required")
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "chapter_generate", strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs, err := formatChapterMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildChapterModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
// 约定：流可能在最后返回一个 Content 为空但包含 Usage 的消息，用于 Token 统计。
func (c *ChapterChain) Stream(ctx context.Context, in *wfmodel.ChapterGenerateInput) (*schema.StreamReader[*schema.Message], error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.ChapterTitle) == "" {
		return nil, fmt.Errorf("chapter title is required")
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "chapter_stream", strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs, err := formatChapterMessages(ctx, in)
	if err != nil {
		return nil, err
	}
	return chatModel.Stream(ctx, msgs, buildChapterModelOptions(in)...)
}

var chapterPromptRegistry = workflowprompt.NewRegistry()

// 传给模型的单章上下文上限
const maxPreviousChapterRunes = 8000

func formatChapterMessages(ctx context.Context, in *wfmodel.ChapterGenerateInput) ([]*schema.Message, error) {
	tpl, err := chapterPromptRegistry.ChatTemplate(workflowprompt.PromptChapterGenV1)
	if err != nil {
		return nil, err
	}
	previous := buildPreviousChaptersBlock(in.PreviousChapters)
	vars := map[string]any{
		"ebook_title":       strings.TrimSpace(in.EbookTitle),
		"ebook_description": strings.TrimSpace(in.EbookDescription),
		"chapter_title":     strings.TrimSpace(in.ChapterTitle),
		"chapter_summary":   strings.TrimSpace(in.ChapterSummary),
		"previous_chapters": previous,
	}
	return tpl.Format(ctx, vars)
}

// buildPreviousChaptersBlock 拼接已生成章节作为上下文，超长内容截断
func buildPreviousChaptersBlock(chapters []wfmodel.PreviousChapter) string {
	if len(chapters) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, ch := range chapters {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("### ")
		b.WriteString(ch.Title)
		if strings.TrimSpace(ch.Content) != "" {
			b.WriteString("\n")
			b.WriteString(node.TruncateByRunes(ch.Content, maxPreviousChapterRunes))
		}
	}
	return b.String()
}

func buildChapterModelOptions(in *wfmodel.ChapterGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 3)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}
