// Package chain 封装基于 Eino 的 LLM 调用链
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "autopen-api/internal/domain/service"
	wfmodel "autopen-api/internal/workflow/model"
	wfnode "autopen-api/internal/workflow/node"
	workflowport "autopen-api/internal/workflow/port"
	workflowprompt "autopen-api/internal/workflow/prompt"
	apperrors "autopen-api/pkg/errors"
)

// 素材送入模型前的长度上限（按字符数）
const maxAttachmentRunes = 20000

type AnalysisChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.AnalysisInput, *schema.Message]
	chainErr  error
}

func NewAnalysisChain(factory workflowport.ChatModelFactory) *AnalysisChain {
	return &AnalysisChain{factory: factory}
}

func (c *AnalysisChain) Invoke(ctx context.Context, in *wfmodel.AnalysisInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type analysisChainState struct {
	In       *wfmodel.AnalysisInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *AnalysisChain) getChain() (compose.Runnable[*wfmodel.AnalysisInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *AnalysisChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.AnalysisInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.AnalysisInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.AnalysisInput) (*analysisChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &analysisChainState{In: in}, nil
		}),
		compose.WithNodeName("analysis.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *analysisChainState) (*analysisChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatAnalysisMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("analysis.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *analysisChainState) (*analysisChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "braindump_analysis", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildAnalysisModelOptions(st.In)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("analysis.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *analysisChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("analysis.finalize"),
	)

	return chain.Compile(ctx)
}

var analysisPromptRegistry = workflowprompt.NewRegistry()

func formatAnalysisMessages(ctx context.Context, in *wfmodel.AnalysisInput) ([]*schema.Message, error) {
	tpl, err := analysisPromptRegistry.ChatTemplate(workflowprompt.PromptAnalysisV1)
	if err != nil {
		return nil, err
	}
	attachments := make([]wfmodel.SourceAttachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, wfmodel.SourceAttachment{
			Name:    a.Name,
			Content: wfnode.TruncateByRunes(a.Content, maxAttachmentRunes),
		})
	}
	vars := map[string]any{
		"project_title": strings.TrimSpace(in.ProjectTitle),
		"raw_content":   strings.TrimSpace(in.RawContent),
		"attachments":   wfnode.BuildAttachmentsBlock(attachments),
	}
	return tpl.Format(ctx, vars)
}

func buildAnalysisModelOptions(in *wfmodel.AnalysisInput) []model.Option {
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

// ParseAnalysisOutput 解析模型返回的分析 JSON
func ParseAnalysisOutput(msg *schema.Message) (*wfmodel.AnalysisOutput, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, apperrors.ErrLLMEmptyResult
	}
	raw := wfnode.ExtractJSONObject(msg.Content)
	var out wfmodel.AnalysisOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("malformed analysis response").WithError(err)
	}
	if len(out.Topics) == 0 {
		return nil, apperrors.ErrLLMEmptyResult.WithDetail("analysis produced no topics")
	}
	fillUsageMeta(&out.Meta, msg)
	return &out, nil
}

func fillUsageMeta(meta *wfmodel.LLMUsageMeta, msg *schema.Message) {
	if meta == nil || msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	meta.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
	meta.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
}
