// Package recipe 食谱生命周期：创建、编辑、回收站、批量操作、硬删除
package recipe

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"recipe-admin/internal/shared/model"
)

// ============================================================================
// 宽容解码：前端历史上以字符串提交过数字字段，解码失败一律回退 0
// ============================================================================

// flexFloat 接受数字或数字字符串的浮点字段
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(v)
		}
		return nil
	}
	var v float64
	if json.Unmarshal(data, &v) == nil {
		*f = flexFloat(v)
	}
	return nil
}

// flexInt 接受数字或数字字符串的整数字段，小数截断
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var f flexFloat
	f.UnmarshalJSON(data)
	*i = flexInt(f)
	return nil
}

// flexList 接受混杂类型数组的字符串列表，非字符串条目转为字符串，null 丢弃
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var raw []any
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case nil:
			continue
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(v))
		}
	}
	*l = out
	return nil
}

// ============================================================================
// 规范化
// ============================================================================

// recipeRequest 创建/更新请求体，字段名与前端约定保持 camelCase
type recipeRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Difficulty          string    `json:"difficulty"`
	Rating              flexFloat `json:"rating"`
	CookingTime         flexInt   `json:"cookingTime"`
	PrepTime            flexInt   `json:"prepTime"`
	Servings            flexInt   `json:"servings"`
	Ingredients         flexList  `json:"ingredients"`
	Instructions        flexList  `json:"instructions"`
	Tags                flexList  `json:"tags"`
	DietaryRestrictions flexList  `json:"dietaryRestrictions"`
	Notes               string    `json:"notes"`
	ImageURL            string    `json:"imageUrl"`
}

// normalizeDifficulty 非法难度一律落到 Medium
func normalizeDifficulty(raw string) model.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return model.DifficultyEasy
	case "medium":
		return model.DifficultyMedium
	case "hard":
		return model.DifficultyHard
	default:
		return model.DifficultyMedium
	}
}

// cleanList 去除首尾空白并丢弃空条目
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// cleanTags 标签额外统一小写
func cleanTags(items []string) []string {
	out := cleanList(items)
	for i, s := range out {
		out[i] = strings.ToLower(s)
	}
	return out
}

// applyRequest 将规范化后的请求字段写入食谱
// 负数数值视为无意义输入，与解析失败同样落 0
func applyRequest(rec *model.Recipe, req *recipeRequest) {
	rec.Title = strings.TrimSpace(req.Title)
	rec.TitleLC = model.NormalizeTitle(req.Title)
	rec.Description = strings.TrimSpace(req.Description)

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	rec.Category = category

	rec.Difficulty = normalizeDifficulty(req.Difficulty)
	rec.Rating = nonNegative(float64(req.Rating))
	rec.CookingTime = int(nonNegative(float64(req.CookingTime)))
	rec.PrepTime = int(nonNegative(float64(req.PrepTime)))
	rec.Servings = int(nonNegative(float64(req.Servings)))

	rec.Ingredients = cleanList(req.Ingredients)
	rec.Instructions = cleanList(req.Instructions)
	rec.Tags = cleanTags(req.Tags)
	rec.DietaryRestrictions = cleanList(req.DietaryRestrictions)

	rec.Notes = strings.TrimSpace(req.Notes)
	rec.ImageURL = strings.TrimSpace(req.ImageURL)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
