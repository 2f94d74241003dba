package evaluator

import (
	"github.com/2719104587/MESBench/internal/dataset"
	"github.com/2719104587/MESBench/internal/llm"
)

// Record is one evaluated question: the original item plus the rendered
// prompt, the candidate's reasoning trace and final answer, and token usage.
// Records are written once per (question, candidate) pair as part of a
// per-source-file artifact and never mutated afterwards.
type Record struct {
	dataset.Item

	Prompt      string    `json:"提示词"`
	Reasoning   string    `json:"思考过程"`
	ModelAnswer string    `json:"模型回答"`
	Usage       llm.Usage `json:"usage"`
}
