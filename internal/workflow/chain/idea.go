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

type IdeaChain struct {
	factory workflowport.ChatModelFactory
}

func NewIdeaChain(factory workflowport.ChatModelFactory) *IdeaChain {
	return &IdeaChain{factory: factory}
}

func (c *IdeaChain) Invoke(ctx context.Context, in *wfmodel.IdeaGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if in.IdeaCount <= 0 {
		return nil, fmt.Errorf("idea_count is required")
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "idea_generate", strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs, err := formatIdeaMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildIdeaModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

var ideaPromptRegistry = workflowprompt.NewRegistry()

func formatIdeaMessages(ctx context.Context, in *wfmodel.IdeaGenerateInput) ([]*schema.Message, error) {
	tpl, err := ideaPromptRegistry.ChatTemplate(workflowprompt.PromptIdeaGenV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"project_title":    strings.TrimSpace(in.ProjectTitle),
		"analysis_summary": strings.TrimSpace(in.AnalysisSummary),
		"topics":           wfnode.BuildTopicsBlock(in.Topics),
		"idea_count":       in.IdeaCount,
	}
	return tpl.Format(ctx, vars)
}

func buildIdeaModelOptions(in *wfmodel.IdeaGenerateInput) []model.Option {
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

// ParseIdeaOutput 解析模型返回的创意 JSON
func ParseIdeaOutput(msg *schema.Message) (*wfmodel.IdeaGenerateOutput, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, apperrors.ErrLLMEmptyResult
	}
	raw := wfnode.ExtractJSONObject(msg.Content)
	var out wfmodel.IdeaGenerateOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("malformed idea response").WithError(err)
	}
	if len(out.Ideas) == 0 {
		return nil, apperrors.ErrLLMEmptyResult.WithDetail("no ideas generated")
	}
	fillUsageMeta(&out.Meta, msg)
	return &out, nil
}
