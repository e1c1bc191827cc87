package service

import (
    "net/url"
    "regexp"
    "strconv"
    "strings"
    "time"
)

var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// maxCents keeps parsed amounts far away from int64 overflow.
const maxCents = 1_000_000_000_00

// ParseEuros converts a decimal amount such as "12", "12.5" or "12.50" into
// cents.  Negative amounts and more than two fraction digits are rejected.
func ParseEuros(s string) (int64, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return 0, invalid("cost is required")
    }
    whole, frac, hasFrac := strings.Cut(s, ".")
    if whole == "" || !allDigits(whole) || (hasFrac && (frac == "" || len(frac) > 2 || !allDigits(frac))) {
        return 0, invalid("cost must be a non-negative amount with at most two decimals")
    }
    if len(whole) > 12 {
        return 0, invalid("cost is too large")
    }
    euros, err := strconv.ParseInt(whole, 10, 64)
    if err != nil {
        return 0, invalid("cost must be a non-negative amount with at most two decimals")
    }
    var cents int64
    if hasFrac {
        if len(frac) == 1 {
            frac += "0"
        }
        cents, _ = strconv.ParseInt(frac, 10, 64)
    }
    total := euros*100 + cents
    if total > maxCents {
        return 0, invalid("cost is too large")
    }
    return total, nil
}

// FormatEuros renders cents as a decimal amount with two fraction digits.
func FormatEuros(cents int64) string {
    sign := ""
    if cents < 0 {
        sign, cents = "-", -cents
    }
    return sign + strconv.FormatInt(cents/100, 10) + "." + leftPad2(cents%100)
}

func leftPad2(n int64) string {
    if n < 10 {
        return "0" + strconv.FormatInt(n, 10)
    }
    return strconv.FormatInt(n, 10)
}

func allDigits(s string) bool {
    for _, r := range s {
        if r < '0' || r > '9' {
            return false
        }
    }
    return true
}

func validateTime(s string) error {
    if !timeOfDay.MatchString(s) {
        return invalid("time must be HH:MM")
    }
    return nil
}

// normalizeLink trims the link and checks it.  An empty result means the
// link is absent.
func normalizeLink(s string) (string, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return "", nil
    }
    u, err := url.Parse(s)
    if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
        return "", invalid("payment link must be an http or https URL")
    }
    return s, nil
}

// civilDay drops the clock and zone of t, keeping its calendar date as a
// midnight UTC value.  Session dates are stored that way.
func civilDay(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
