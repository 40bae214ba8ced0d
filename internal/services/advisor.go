// Package services – Advisor
//
// Advisor turns a classified message into advice text. Meal feedback is
// grounded on the subject's synced day (actual intake, goal targets, weight);
// app questions are grounded on FAQ snippets; other types go to the model
// with the message only.

package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/knowledge"
	"github.com/tbourn/dietbot/internal/llm"
)

const (
	trainerPersona = "あなたは経験豊富なパーソナルトレーナー兼管理栄養士です。" +
		"利用者に寄り添い、丁寧で前向きな日本語で回答してください。"

	systemPersona = "あなたは食事管理アプリ「カロミル」と連携したLINEサポート担当です。" +
		"参考情報に書かれている内容だけを根拠に、操作方法を簡潔に案内してください。" +
		"参考情報で答えられない場合は、担当者から改めて連絡する旨を伝えてください。"

	unknown = "不明"

	faqSnippets = 3
)

// DaySyncer syncs one day and returns what was fetched.
type DaySyncer interface {
	SyncDay(ctx context.Context, subjectID, date string) (*DayData, error)
}

// Advisor builds prompts per request type and calls the model.
type Advisor struct {
	LLM  llm.Completer
	Days DaySyncer
	// FAQ grounds system questions; nil sends the question alone.
	FAQ knowledge.Index

	MaxTokens   int
	Temperature float32
}

// Advise returns advice for message. date is the canonical date the message
// refers to, used for meal feedback.
func (a *Advisor) Advise(ctx context.Context, subjectID string, typ domain.RequestType, message, date string) (string, error) {
	ctx, span := otel.Tracer("services/Advisor").Start(ctx, "Advise",
		trace.WithAttributes(
			attribute.String("user.id", subjectID),
			attribute.String("request.type", string(typ)),
		),
	)
	defer span.End()

	req := llm.Request{
		System:      trainerPersona,
		Temperature: llm.Temp(a.Temperature),
		MaxTokens:   a.MaxTokens,
	}
	switch typ {
	case domain.TypeMealFeedback:
		if subjectID == "" {
			return "", ErrNoSubject
		}
		day, err := a.Days.SyncDay(ctx, subjectID, date)
		if err != nil {
			return "", err
		}
		req.User = MealPrompt(day)
	case domain.TypeWorkoutQuestion:
		req.User = "次の運動・トレーニングに関する相談に、安全面に配慮して具体的に回答してください。\n\n" + message
	case domain.TypeSystemQuestion:
		req.System = systemPersona
		req.User = SystemPrompt(message, a.faq(message))
	default:
		req.User = "次のメッセージに、ダイエットをサポートする立場から短く返信してください。\n\n" + message
	}

	out, err := a.LLM.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("advice: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (a *Advisor) faq(q string) []string {
	if a.FAQ == nil {
		return nil
	}
	var out []string
	for _, r := range a.FAQ.TopK(q, faqSnippets) {
		out = append(out, r.Snippet)
	}
	return out
}

// MealPrompt asks for feedback on the gap between intake and goal.
func MealPrompt(day *DayData) string {
	var actual domain.Macros
	if day.HasNutrition {
		actual = day.Nutrition.Totals
	}
	var b strings.Builder
	b.WriteString("この日の食事の栄養バランスについて、実績と目標の差を踏まえたアドバイスを作成してください。\n\n")
	fmt.Fprintf(&b, "【日付】\n%s\n\n", day.Date)
	b.WriteString("【実績（実際に摂取した量）】\n")
	writeMacros(&b, actual)
	b.WriteString("\n【目標（アプリに設定された値）】\n")
	writeMacros(&b, day.Goal)
	fmt.Fprintf(&b, "\n【体重】\n%skg\n\n", num(day.Body.WeightKg))
	b.WriteString("● 実績と目標の差をもとに、「良い点」と「改善提案」に分けてください。\n")
	b.WriteString("● 食事のデータ以外に仮定は加えず、実績ベースで丁寧かつ前向きなアドバイスをしてください。")
	return b.String()
}

// SystemPrompt pairs an app question with reference snippets.
func SystemPrompt(question string, snippets []string) string {
	var b strings.Builder
	b.WriteString("【参考情報】\n")
	if len(snippets) == 0 {
		b.WriteString("（該当なし）\n")
	}
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(strings.ReplaceAll(s, "\n", " "))
		b.WriteString("\n")
	}
	b.WriteString("\n【質問】\n")
	b.WriteString(question)
	return b.String()
}

func writeMacros(b *strings.Builder, m domain.Macros) {
	fmt.Fprintf(b, "たんぱく質：%sg\n", num(m.Protein))
	fmt.Fprintf(b, "脂質：%sg\n", num(m.Fat))
	fmt.Fprintf(b, "炭水化物：%sg\n", num(m.Carb))
	fmt.Fprintf(b, "カロリー：%skcal\n", num(m.Calorie))
}

func num(v *float64) string {
	if v == nil {
		return unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
