// Package prompt maps question types to generation prompts and renders the
// judge rubric prompt used to grade open-ended answers.
package prompt

import (
	"fmt"
	"strings"

	"github.com/2719104587/MESBench/internal/dataset"
)

const (
	singleChoiceTemplate = "你是一名建设工程监理领域的专家。请回答下面的单选题，只输出正确选项的字母，不要输出任何解释。\n\n%s"
	multiChoiceTemplate  = "你是一名建设工程监理领域的专家。请回答下面的多选题，只输出所有正确选项的字母（如：ABD），不要输出任何解释。\n\n%s"
	trueFalseTemplate    = "你是一名建设工程监理领域的专家。请判断下面的说法是否正确，只输出“正确”或“错误”，不要输出任何解释。\n\n%s"
	openEndedTemplate    = "你是一名建设工程监理领域的专家。请回答下面的问答题，回答应当准确、完整、条理清晰。\n\n%s"
)

const judgeTemplate = `你是一名严格的阅卷专家。请根据评分标准给考生的回答打分。

题目：
%s

评分标准：
%s

考生回答：
%s

请给出 0 到 100 之间的整数分数，只输出这个整数，不要输出任何其他内容。`

const judgeTemplateEN = `You are a strict examiner. Grade the candidate's answer against the scoring rubric.

Question:
%s

Scoring rubric:
%s

Candidate answer:
%s

Give an integer score between 0 and 100. Output only that integer and nothing else.`

// Build renders the generation prompt for one question. Unknown types fall
// back to the open-ended template.
func Build(it *dataset.Item) string {
	q := strings.TrimSpace(it.Question)
	switch it.Type {
	case dataset.TypeSingleChoice:
		return fmt.Sprintf(singleChoiceTemplate, q)
	case dataset.TypeMultiChoice:
		return fmt.Sprintf(multiChoiceTemplate, q)
	case dataset.TypeTrueFalse:
		return fmt.Sprintf(trueFalseTemplate, q)
	default:
		return fmt.Sprintf(openEndedTemplate, q)
	}
}

// BuildJudge renders the grading prompt for one open-ended answer.
func BuildJudge(question, rubric, answer string, english bool) string {
	tmpl := judgeTemplate
	if english {
		tmpl = judgeTemplateEN
	}
	return fmt.Sprintf(tmpl, strings.TrimSpace(question), strings.TrimSpace(rubric), strings.TrimSpace(answer))
}
