package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту создания платёжных ссылок: не больше
// пяти запросов в минуту на пользователя. Лимитеры живут в памяти, после
// перезапуска счётчики начинаются заново.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// NewRateLimiter создает новый экземпляр RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[int64]*rate.Limiter)}
}

// Allow сообщает, можно ли пользователю выполнить запрос сейчас.
func (r *RateLimiter) Allow(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/5), 5)
		r.limiters[userID] = limiter
	}
	return limiter.Allow()
}
