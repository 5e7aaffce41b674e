package models

import "time"

// KST часовой пояс биржи (UTC+9)
var KST = time.FixedZone("KST", 9*60*60)

// TimestampLayout формат поля timestamp во всех JSON-результатах
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Clock источник текущего времени, подменяется в тестах
type Clock func() time.Time

// FormatKST форматирует время в KST
func FormatKST(t time.Time) string {
	return t.In(KST).Format(TimestampLayout)
}
