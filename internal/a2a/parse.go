package a2a

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

// fieldKey matches "key:" at the start of the text or after a separator.
var fieldKey = regexp.MustCompile(`(?i)(?:^|[\s,;])(location|city|industry|audience|target|scale|capital|budget)\s*:`)

var digits = regexp.MustCompile(`\d+`)

// parseMarketInputs reads "key: value" pairs such as
// "location: Jakarta, industry: coffee, capital: 10.000.000". Text without
// any recognised key is taken as the industry.
func parseMarketInputs(text string) models.MarketInputs {
	text = strings.TrimSpace(text)
	var in models.MarketInputs

	matches := fieldKey.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		in.CustomIndustry = text
		return in
	}

	for i, m := range matches {
		key := strings.ToLower(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := strings.Trim(text[m[1]:end], " \t\r\n,;.")

		switch key {
		case "location", "city":
			in.Location = value
		case "industry":
			in.CustomIndustry = value
		case "audience", "target":
			in.Audience = value
		case "scale":
			in.Scale = parseScale(value)
		case "capital", "budget":
			in.Capital = parseCapital(value)
		}
	}
	return in
}

func parseScale(value string) string {
	value = strings.ToLower(value)
	for _, s := range models.Scales {
		if strings.Contains(value, s) {
			return s
		}
	}
	return ""
}

// parseCapital keeps the digits of value, so "Rp 10.000.000" and
// "10,000,000" both read as 10000000. Anything unreadable is 0.
func parseCapital(value string) int64 {
	n, err := strconv.ParseInt(strings.Join(digits.FindAllString(value, -1), ""), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
