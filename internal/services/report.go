// Package services – ReportService
//
// ReportService renders the plain-text daily report an operator sends to a
// subject: body composition, goal targets, logged meals by slot and intake
// totals. Missing numbers render as "-".

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbourn/dietbot/internal/cache"
	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/normalize"
)

var slotLabels = map[domain.MealSlot]string{
	domain.SlotMorning: "朝食（morning）",
	domain.SlotNoon:    "昼食（noon）",
	domain.SlotNight:   "夕食（night）",
	domain.SlotSnack:   "間食（snack）",
}

// DayFetcher loads one day without persisting it.
type DayFetcher interface {
	FetchDay(ctx context.Context, subjectID, date string) (*DayData, error)
}

// ReportService formats daily reports from live upstream data.
type ReportService struct {
	Days DayFetcher
}

// Daily returns the report for subjectID on date. Nothing is persisted, so
// a recently cached upstream payload may be used.
func (s *ReportService) Daily(ctx context.Context, subjectID, date string) (string, error) {
	day, err := s.Days.FetchDay(cache.AllowStale(ctx), subjectID, date)
	if err != nil {
		return "", err
	}
	return FormatDailyReport(day), nil
}

// FormatDailyReport renders day. Goal and totals are read as reported
// upstream (basis.all, meal_histories_summary.all) without any fallback.
func FormatDailyReport(day *DayData) string {
	meal := day.Meal
	if meal == nil {
		meal = normalize.Object{}
	}
	goal := normalize.ExtractDayGoal(meal)
	total := normalize.ExtractSummaryAll(meal)
	items := normalize.ExtractMealItems(meal)

	var lines []string
	add := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	add("📅 日付：%s\n", normalize.Slash(day.Date))

	add("🧍‍♂️ 体組成（anthropometric）")
	add("体重：%s", fmtNum(day.Body.WeightKg, "kg", 1))
	add("体脂肪率：%s\n", fmtNum(day.Body.BodyFatPct, "%", 1))

	add("🎯 栄養目標（basis.all）")
	addMacros(add, goal)

	add("🍱 食事内容（meal_histories）")
	for _, slot := range domain.MealSlots {
		add("【%s】", slotLabels[slot])
		list := items[slot]
		if len(list) == 0 {
			add("食事記録なし\n")
			continue
		}
		for _, it := range list {
			t := it.Time
			if t == "" {
				t = "--:--"
			}
			name := it.Name
			if name == "" {
				name = "(名称未設定)"
			}
			img := ""
			if it.HasImage {
				img = "✅"
			}
			add("%s　%s　%s　P:%s　F:%s　C:%s　%s", t, name,
				fmtNum(it.Macros.Calorie, " kcal", 0),
				fmtNum(it.Macros.Protein, "g", 1),
				fmtNum(it.Macros.Fat, "g", 1),
				fmtNum(it.Macros.Carb, "g", 1),
				img)
		}
		add("")
	}

	add("📊 栄養摂取合計（meal_histories_summary.all）")
	addMacros(add, total)

	return strings.Join(lines, "\n")
}

func addMacros(add func(string, ...any), m domain.Macros) {
	add("カロリー：%s", fmtNum(m.Calorie, " kcal", 0))
	add("たんぱく質：%s", fmtNum(m.Protein, " g", 1))
	add("脂質：%s", fmtNum(m.Fat, " g", 1))
	add("炭水化物：%s\n", fmtNum(m.Carb, " g", 1))
}

func fmtNum(v *float64, suffix string, digits int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f%s", digits, *v, suffix)
}

// SummaryMessage is the text pushed by the summary action: the daily report
// followed by the stored advice.
func SummaryMessage(report string, advice *string) string {
	a := ""
	if advice != nil {
		a = strings.TrimSpace(*advice)
	}
	if a == "" {
		a = "（未作成）"
	}
	return "【今日の食事まとめ】\n" + report + "\n\n――――――\n【アドバイス】\n" + a
}
