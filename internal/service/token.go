// internal/service/token.go
package service

import (
	"strings"
	"time"
)

const tokenDelimiter = "+"

// InstanceToken is the parsed form of the automation tool's campaign
// identifier, structured as date + person name + code1 [+ code2].
// Unparseable tokens keep Raw and leave the derived fields empty.
type InstanceToken struct {
	Raw        string
	Date       string
	PersonName string
	Codes      []string
}

// ParseInstanceToken splits a raw token on the delimiter. Tokens that do
// not match the expected shape are kept whole; data-quality problems are
// never a rejection reason.
func ParseInstanceToken(raw string) InstanceToken {
	token := InstanceToken{Raw: raw}

	parts := strings.Split(raw, tokenDelimiter)
	if len(parts) < 3 {
		return token
	}
	if _, err := time.Parse("2006-01-02", parts[0]); err != nil {
		return token
	}

	token.Date = parts[0]
	token.PersonName = parts[1]
	token.Codes = parts[2:]
	return token
}

// CampaignName derives the short campaign name: the joined codes, or the
// whole token when no codes could be parsed. Multiple tokens sharing a
// derived name collapse onto one logical campaign.
func (t InstanceToken) CampaignName() string {
	if len(t.Codes) == 0 {
		return t.Raw
	}
	return strings.Join(t.Codes, tokenDelimiter)
}
