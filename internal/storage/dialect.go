package storage

import (
	"strconv"
	"strings"
)

// dialect описывает отличия бэкендов: подстановку плейсхолдеров, колонку
// автоинкремента и распознавание нарушения уникальности. Весь остальной
// SQL общий.
type dialect struct {
	name              string
	serialPrimaryKey  string
	rebind            func(query string) string
	isUniqueViolation func(err error) bool
}

// rebindQuestion оставляет запрос как есть: SQLite принимает "?" нативно.
func rebindQuestion(query string) string { return query }

// rebindDollar переписывает "?" в нумерованные "$1..$n" для PostgreSQL.
// Строковых литералов с "?" в наших запросах нет, поэтому посимвольная
// замена безопасна.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
