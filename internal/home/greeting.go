package home

import "time"

// Greeting returns the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Доброе утро!"
	case h >= 12 && h < 18:
		return "Добрый день!"
	case h >= 18 && h < 23:
		return "Добрый вечер!"
	default:
		return "Доброй ночи!"
	}
}
