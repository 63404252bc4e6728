package models

import "time"

// Plan описывает тариф из статического каталога. Каталог неизменяемый,
// в хранилище не сохраняется.
type Plan struct {
	ID       string        // Идентификатор тарифа: daily, weekly, monthly, yearly
	Name     string        // Отображаемое название
	Amount   int64         // Цена в кобо
	Duration time.Duration // Длительность доступа
}
