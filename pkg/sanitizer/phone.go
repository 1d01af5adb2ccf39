package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var DefaultPhoneRegions = []string{"US", "IL"}

// Phones parses numbers written in a local format by trying each region in
// order. Numbers with a leading + parse the same under every region.
type Phones struct {
	regions []string
}

func NewPhones(regions []string) *Phones {
	cleaned := make([]string, 0, len(regions))
	for _, r := range regions {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		cleaned = DefaultPhoneRegions
	}
	return &Phones{regions: cleaned}
}

// Normalize returns the E.164 form of a valid number, or "".
func (p *Phones) Normalize(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range p.regions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}

func (p *Phones) Valid(phone string) bool {
	return p.Normalize(phone) != ""
}

var defaultPhones = NewPhones(nil)

func NormalizePhone(phone string) string {
	return defaultPhones.Normalize(phone)
}
