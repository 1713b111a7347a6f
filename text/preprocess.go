// Package text 负责图书文本的归一化与分词。
package text

import (
	"strings"
	"unicode"
)

// Preprocess 将原始文本归一化：转小写，非 ASCII 字母与空白替换为空格，
// 连续空白折叠为一个空格并去掉首尾空格。空输入返回空串。
func Preprocess(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lower))
	pendingSpace := false
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		// 空白、数字、符号、非 ASCII 字母都视为分隔
		pendingSpace = true
	}
	return b.String()
}

// Tokenize 按 `\b\w\w+\b` 的约定切词：连续字母数字下划线，长度至少 2。
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
