package testsupport

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// StubChatModel 返回固定回复的桩模型
type StubChatModel struct {
	Reply string
	Err   error
}

func (m *StubChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Reply, nil), nil
}

func (m *StubChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.Reply, nil)}), nil
}

// StubFactory 返回固定桩模型的模型工厂
type StubFactory struct {
	Model *StubChatModel
}

func (f *StubFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	return f.Model, nil
}

// NewStubFactory 创建固定回复的模型工厂
func NewStubFactory(reply string) *StubFactory {
	return &StubFactory{Model: &StubChatModel{Reply: reply}}
}
