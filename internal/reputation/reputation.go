// Package reputation вычисляет репутационный уровень исполнителя
// по количеству завершённых заказов и среднему рейтингу.
package reputation

// DefaultRating — нейтральный рейтинг для исполнителя без отзывов.
const DefaultRating = 5.0

// Badge описывает репутационный уровень для отображения в профиле.
type Badge struct {
	Label  string `json:"label"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Weight int    `json:"weight"`
}

var (
	eliteGold    = Badge{Label: "Elite Gold", Color: "amber", Icon: "🔱", Weight: 4}
	topPerformer = Badge{Label: "Top Performer", Color: "indigo", Icon: "🏆", Weight: 3}
	risingStar   = Badge{Label: "Rising Star", Color: "green", Icon: "🚀", Weight: 2}
	newPro       = Badge{Label: "New Pro", Color: "slate", Icon: "✨", Weight: 1}
)

// Tier возвращает уровень по порогам, проверяемым строго сверху вниз.
// Вход считается валидным: completedJobs >= 0, avgRating — число;
// подстановку дефолтного рейтинга выполняет вызывающая сторона.
func Tier(completedJobs int, avgRating float64) Badge {
	switch {
	case completedJobs >= 6 && avgRating >= 4.8:
		return eliteGold
	case completedJobs >= 3 && avgRating >= 4.5:
		return topPerformer
	case completedJobs >= 1:
		return risingStar
	default:
		return newPro
	}
}

// TierWithDefault подставляет DefaultRating, если рейтинг отсутствует.
func TierWithDefault(completedJobs int, avgRating *float64) Badge {
	rating := DefaultRating
	if avgRating != nil {
		rating = *avgRating
	}
	return Tier(completedJobs, rating)
}
