package app

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GMaps serves review dates as Indonesian free text ("3 bulan lalu",
// "setahun yang lalu", "2 Januari 2024"). parseReviewDate also accepts the
// machine formats the other feeds emit. Returns nil when nothing matches;
// callers keep the null rather than faking a timestamp.

var machineFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var relativeRe = regexp.MustCompile(`^(\d+|se)\s*(detik|menit|jam|hari|minggu|bulan|tahun)(\s+yang)?\s+lalu$`)

var indonesianMonths = map[string]time.Month{
	"januari": time.January, "februari": time.February, "maret": time.March,
	"april": time.April, "mei": time.May, "juni": time.June,
	"juli": time.July, "agustus": time.August, "september": time.September,
	"oktober": time.October, "november": time.November, "desember": time.December,
}

var absoluteRe = regexp.MustCompile(`^(\d{1,2})\s+([a-z]+)\s+(\d{4})$`)

func parseReviewDate(raw string, now time.Time) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	for _, f := range machineFormats {
		if t, err := time.Parse(f, s); err == nil {
			t = t.UTC()
			return &t
		}
	}

	low := strings.ToLower(s)
	if low == "kemarin" {
		t := now.AddDate(0, 0, -1)
		return &t
	}

	if m := relativeRe.FindStringSubmatch(low); m != nil {
		n := 1
		if m[1] != "se" {
			n, _ = strconv.Atoi(m[1])
		}
		var t time.Time
		switch m[2] {
		case "detik":
			t = now.Add(-time.Duration(n) * time.Second)
		case "menit":
			t = now.Add(-time.Duration(n) * time.Minute)
		case "jam":
			t = now.Add(-time.Duration(n) * time.Hour)
		case "hari":
			t = now.AddDate(0, 0, -n)
		case "minggu":
			t = now.AddDate(0, 0, -7*n)
		case "bulan":
			t = now.AddDate(0, -n, 0)
		case "tahun":
			t = now.AddDate(-n, 0, 0)
		}
		return &t
	}

	if m := absoluteRe.FindStringSubmatch(low); m != nil {
		if month, ok := indonesianMonths[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			return &t
		}
	}

	return nil
}
