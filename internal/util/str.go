package util

import (
	"fmt"
	"time"
)

// Datetime is the format to use anywhere we need to output a date+time to an user.
func Datetime(iface interface{}) string {
	var t time.Time
	switch iface := iface.(type) {
	case time.Time:
		t = iface
	case TimeAsTimestamp:
		t = iface.Time()
	default:
		panic(fmt.Errorf("unexpected type %T", iface))
	}

	return t.Format("2006-01-02 15h04 MST")
}

// Rating formats a rating the way it is displayed everywhere, and the way
// it is written in audit reasons.
func Rating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
