package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "autopen-api/internal/domain/service"
	wfmodel "autopen-api/internal/workflow/model"
	wfnode "autopen-api/internal/workflow/node"
	workflowport "autopen-api/internal/workflow/port"
	workflowprompt "autopen-api/internal/workflow/prompt"
	apperrors "autopen-api/pkg/errors"
)

type StructureChain struct {
	factory workflowport.ChatModelFactory
}

func NewStructureChain(factory workflowport.ChatModelFactory) *StructureChain {
	return &StructureChain{factory: factory}
}

func (c *StructureChain) Invoke(ctx context.Context, in *wfmodel.StructureGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.IdeaTitle) == "" {
		return nil, fmt.Errorf("idea title is required")
	}
	if in.ChapterCount <= 0 {
		return nil, fmt.Errorf("chapter_count is required")
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "structure_generate", strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs, err := formatStructureMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildStructureModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

var structurePromptRegistry = workflowprompt.NewRegistry()

func formatStructureMessages(ctx context.Context, in *wfmodel.StructureGenerateInput) ([]*schema.Message, error) {
	tpl, err := structurePromptRegistry.ChatTemplate(workflowprompt.PromptStructureGenV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"project_title":    strings.TrimSpace(in.ProjectTitle),
		"idea_title":       strings.TrimSpace(in.IdeaTitle),
		"idea_description": strings.TrimSpace(in.IdeaDescription),
		"analysis_summary": strings.TrimSpace(in.AnalysisSummary),
		"chapter_count":    in.ChapterCount,
	}
	return tpl.Format(ctx, vars)
}

func buildStructureModelOptions(in *wfmodel.StructureGenerateInput) []model.Option {
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

// ParseStructureOutput 解析模型返回的结构 JSON
func ParseStructureOutput(msg *schema.Message) (*wfmodel.StructureGenerateOutput, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, apperrors.ErrLLMEmptyResult
	}
	raw := wfnode.ExtractJSONObject(msg.Content)
	var out wfmodel.StructureGenerateOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("malformed structure response").WithError(err)
	}
	if len(out.Chapters) == 0 {
		return nil, apperrors.ErrLLMEmptyResult.WithDetail("structure produced no chapters")
	}
	fillUsageMeta(&out.Meta, msg)
	return &out, nil
}
