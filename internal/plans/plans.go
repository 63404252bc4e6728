// Package plans содержит статический каталог тарифов. Цены указаны в кобо
// (100 кобо = 1 NGN), длительности — в сутках доступа к каналу.
package plans

import (
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// Catalog — полный список тарифов в порядке показа в меню.
var Catalog = []models.Plan{
	{ID: "daily", Name: "Daily Plan", Amount: 100, Duration: 24 * time.Hour},
	{ID: "weekly", Name: "Weekly Plan", Amount: 500, Duration: 7 * 24 * time.Hour},
	{ID: "monthly", Name: "Monthly Plan", Amount: 1500, Duration: 30 * 24 * time.Hour},
	{ID: "yearly", Name: "Yearly Plan", Amount: 15000, Duration: 365 * 24 * time.Hour},
}

// Find возвращает тариф по идентификатору. Второе значение false, если
// такого тарифа в каталоге нет — например, когда в платеже сохранён
// идентификатор из старой версии каталога.
func Find(id string) (models.Plan, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}
