package task

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultTagColor = "#6B7280"

// MaxTagLength - предел имени метки в символах, как у колонки tags.name
const MaxTagLength = 50

// Tag - глобальная метка, имя уникально с учётом регистра
type Tag struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Color string    `json:"color" db:"color"`
}

// ParseTagNames разбирает ввод вида "a, b,,a": режет по запятым,
// обрезает пробелы, выкидывает пустые и повторы (с учётом регистра).
func ParseTagNames(raw string) []string {
	return NormalizeTagNames(strings.Split(raw, ","))
}

func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	res := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		res = append(res, name)
	}
	return res
}
