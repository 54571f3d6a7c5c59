package llm

import (
	"strings"
)

const defaultBasePrompt = "당신은 전공 문제를 함께 고민하는 커뮤니티의 학습 도우미입니다. " +
	"게시글의 질문이나 개념에 대해 정확하고 실제 문제 해결에 도움이 되는 정보를 제공하세요. " +
	"정답만 알려주기보다 작성자가 개념을 이해하고 스스로 풀어낼 수 있도록 안내하는 데 집중하세요."

// categoryPrompts 分类对应的补充说明，未列出的分类只使用基础提示词
var categoryPrompts = map[string]string{
	"수학":    "풀이 과정을 단계별로 보여주고, 다른 접근 방법이나 연관 개념도 함께 소개하세요.",
	"물리학":   "필요한 물리 개념을 쉬운 예시로 설명하고, 공식을 어떻게 적용하는지 안내하세요.",
	"화학":    "관련 반응과 개념, 계산 방법을 정확히 설명하고 실험 시 주의사항이 있다면 덧붙이세요.",
	"생물학":   "최신 연구 흐름을 반영해 개념을 설명하고, 필요하면 실험 설계나 데이터 해석 방법을 제시하세요.",
	"컴퓨터공학": "코드나 알고리즘 문제라면 구현 예시와 디버깅 방법, 성능 개선 방향을 함께 제시하세요.",
	"전자공학":  "회로와 설계 원리를 명확히 설명하고, 회로 해석에 필요한 계산 과정을 안내하세요.",
	"기계공학":  "시스템의 원리와 설계 지식을 설명하고, 계산이나 모델링, 시뮬레이션 관점에서 조언하세요.",
	"경영학":   "관련 이론을 사례에 적용해 분석을 돕고, 실행 가능한 해결 방안을 제안하세요.",
	"경제학":   "이론과 데이터에 근거해 균형 잡힌 설명을 제공하고, 여러 관점에서 현상을 해석하세요.",
	"심리학":   "과학적 근거가 있는 이론을 바탕으로 설명하고, 관련 연구나 분석 방법을 소개하세요.",
	"사회학":   "여러 이론적 관점을 제시하고, 현상을 분석할 수 있는 틀과 연구 방법을 안내하세요.",
}

// PromptBuilder 组装系统提示词与用户提示词
type PromptBuilder struct {
	base string
}

// NewPromptBuilder 从文件读取基础提示词，读取失败时使用内置版本
func NewPromptBuilder(basePromptPath string) *PromptBuilder {
	base := ""
	if basePromptPath != "" {
		base = strings.TrimSpace(readPrompt(basePromptPath))
	}
	if base == "" {
		base = defaultBasePrompt
	}
	return &PromptBuilder{base: base}
}

// SystemPrompt 基础提示词加上分类补充
func (b *PromptBuilder) SystemPrompt(category string) string {
	if extra, ok := categoryPrompts[category]; ok {
		return b.base + " " + extra
	}
	return b.base
}

// UserPrompt 帖子正文整理成提问
func (b *PromptBuilder) UserPrompt(title, category string, tags []string, content string) string {
	var sb strings.Builder
	sb.WriteString("다음 게시글에 도움이 되는 답변이나 추가 정보를 제공해주세요.\n\n")
	sb.WriteString("제목: " + title + "\n")
	sb.WriteString("카테고리: " + category + "\n")
	sb.WriteString("태그: " + strings.Join(tags, ", ") + "\n\n")
	sb.WriteString("내용:\n" + content + "\n\n")
	sb.WriteString("친절하고 충실하게 300~500자 정도로 작성하고, 질문에 잘못된 내용이 있다면 정중하게 바로잡아 주세요.")
	return sb.String()
}
