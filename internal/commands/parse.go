package commands

import "time"

const dateLayout = "2006-01-02"

// ValidClock reports whether v is exactly "HH:MM", 24-hour, zero
// padded. Matching in the scheduler is string equality against the
// formatted wall clock, so anything looser would never fire.
func ValidClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	hh := int(v[0]-'0')*10 + int(v[1]-'0')
	mm := int(v[3]-'0')*10 + int(v[4]-'0')
	return hh < 24 && mm < 60
}

// ValidDate reports whether v is exactly "YYYY-MM-DD". The re-format
// check rejects inputs time.Parse would normalize.
func ValidDate(v string) bool {
	t, err := time.Parse(dateLayout, v)
	return err == nil && t.Format(dateLayout) == v
}
