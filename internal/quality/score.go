// Package quality estimates whether a profile is worth a paid reveal, using
// the upstream confidence hint and the free contact availability probes.
package quality

import (
	"strings"
	"unicode/utf8"

	"leadgen/internal/models"
)

const (
	baseHigh    = 85
	baseMedium  = 65
	baseLow     = 35
	baseDefault = 50

	bonusVerifiedWork = 15
	bonusWork         = 5
	bonusPersonal     = 3
	bonusPhone        = 2

	penaltyIncompleteName = 10
	penaltyNoJobTitle     = 5
	penaltyNoContact      = 15

	highThreshold   = 80
	mediumThreshold = 60
	costThreshold   = 70
)

// Score computes the quality of a profile. It performs no I/O.
func Score(p *models.Profile, a models.ContactAvailability) models.QualityScore {
	flags := []string{}

	base := baseDefault
	switch strings.ToLower(p.ConfidenceLevel) {
	case models.ConfidenceHigh:
		base = baseHigh
	case models.ConfidenceMedium:
		base = baseMedium
	case models.ConfidenceLow:
		base = baseLow
	}

	// a verified work email is still a work email
	hasWork := a.WorkEmail || a.WorkEmailVerified

	emailBonus := 0
	if a.WorkEmailVerified {
		emailBonus = bonusVerifiedWork
	} else if hasWork {
		emailBonus = bonusWork
	}

	contactBonus := 0
	if a.PersonalEmail {
		contactBonus += bonusPersonal
	}
	if a.Phone {
		contactBonus += bonusPhone
	}

	if utf8.RuneCountInString(strings.TrimSpace(p.FullName)) < 3 {
		flags = append(flags, models.FlagIncompleteName)
		base -= penaltyIncompleteName
	}
	if strings.TrimSpace(p.Title) == "" {
		flags = append(flags, models.FlagNoJobTitle)
		base -= penaltyNoJobTitle
	}
	if !hasWork && !a.PersonalEmail {
		flags = append(flags, models.FlagNoContactInfo)
		base -= penaltyNoContact
	}

	final := min(100, max(0, base+emailBonus+contactBonus))

	return models.QualityScore{
		Overall:         final,
		Confidence:      Bucket(final),
		Flags:           flags,
		CostRecommended: a.WorkEmailVerified || (final >= costThreshold && hasWork),
		BaseScore:       base,
		ContactBonus:    emailBonus + contactBonus,
	}
}

// Bucket maps a final score to a confidence level.
func Bucket(score int) string {
	switch {
	case score >= highThreshold:
		return models.ConfidenceHigh
	case score >= mediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
