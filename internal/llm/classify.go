package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/dietbot/internal/domain"
)

const classifySystemPrompt = "あなたはダイエット指導アシスタントです。" +
	"ユーザーからのメッセージを見て、その内容に応じて request_type を以下の中から1つ選んでください：\n" +
	"・meal_analysis（食事に関する内容全般。カロミルAPI連携の食事分析依頼や、食事への質問・相談も含む）\n" +
	"・calomeal_question（カロミルアプリの使い方・操作方法に関する内容）\n" +
	"・workout_question（運動・ストレッチ・エクササイズなどに関する相談）\n" +
	"・other（上記以外）\n" +
	"該当する request_type を1単語のみで返してください。"

// labels maps model answers to request types.
var labels = map[string]domain.RequestType{
	"meal_analysis":     domain.TypeMealFeedback,
	"meal_feedback":     domain.TypeMealFeedback,
	"calomeal_question": domain.TypeSystemQuestion,
	"system_question":   domain.TypeSystemQuestion,
	"workout_question":  domain.TypeWorkoutQuestion,
	"other":             domain.TypeOther,
}

// keyword rules are checked in order; app-usage questions often mention meals
// too, so they come first.
var keywordRules = []struct {
	typ   domain.RequestType
	words []string
}{
	{domain.TypeSystemQuestion, []string{"カロミル", "アプリ", "使い方", "操作", "連携", "ログイン", "calomeal"}},
	{domain.TypeWorkoutQuestion, []string{"運動", "筋トレ", "ストレッチ", "エクササイズ", "ウォーキング", "ジョギング", "ランニング", "workout", "exercise"}},
	{domain.TypeMealFeedback, []string{"食事", "ごはん", "ご飯", "朝食", "昼食", "夕食", "間食", "朝ごはん", "昼ごはん", "晩ごはん", "カロリー", "たんぱく", "タンパク", "糖質", "PFC", "meal", "breakfast", "lunch", "dinner"}},
}

// Classifier assigns a request type to an inbound message. It never fails:
// without a model, or when the model errors or answers an unknown label, it
// falls back to keyword rules.
type Classifier struct {
	LLM Completer
}

func (c Classifier) Classify(ctx context.Context, text string) domain.RequestType {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TypeOther
	}
	if c.LLM != nil {
		out, err := c.LLM.Complete(ctx, Request{
			System:      classifySystemPrompt,
			User:        text,
			Temperature: Temp(0),
			MaxTokens:   10,
		})
		if err == nil {
			if t, ok := ParseLabel(out); ok {
				return t
			}
			log.Ctx(ctx).Warn().Str("label", out).Msg("unknown classifier label, using keywords")
		} else if !errors.Is(err, ErrNotConfigured) {
			log.Ctx(ctx).Warn().Err(err).Msg("classifier call failed, using keywords")
		}
	}
	return ClassifyKeywords(text)
}

// ParseLabel maps a model answer such as "meal_analysis" or "`other`." to a
// request type.
func ParseLabel(s string) (domain.RequestType, bool) {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), "`'\".。 \n"))
	if t, ok := labels[s]; ok {
		return t, true
	}
	// Models sometimes wrap the label in a sentence.
	for _, l := range []string{"meal_analysis", "calomeal_question", "workout_question", "meal_feedback", "system_question"} {
		if strings.Contains(s, l) {
			return labels[l], true
		}
	}
	return "", false
}

// ClassifyKeywords is the rule-based fallback classifier.
func ClassifyKeywords(text string) domain.RequestType {
	lower := strings.ToLower(text)
	for _, r := range keywordRules {
		for _, w := range r.words {
			if strings.Contains(lower, strings.ToLower(w)) {
				return r.typ
			}
		}
	}
	return domain.TypeOther
}
