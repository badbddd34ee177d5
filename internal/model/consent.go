package model

import "time"

// ApplyMarketingConsent records a marketing preference the caller supplied.
// A nil consent leaves the record untouched. A non-nil consent always stamps
// MarketingConsentUpdatedAt, even when the value is unchanged, because being
// told the preference is the event being recorded.
func ApplyMarketingConsent(u *User, consent *bool, now time.Time) bool {
	if consent == nil {
		return false
	}
	u.MarketingConsent = *consent
	stamp := now
	u.MarketingConsentUpdatedAt = &stamp
	return true
}

// ApplyTermsAcceptance sets the terms flag and stamps the acceptance time when
// the terms are accepted.
func ApplyTermsAcceptance(u *User, accepted *bool, now time.Time) bool {
	if accepted == nil {
		return false
	}
	u.TermsAccepted = *accepted
	if *accepted {
		stamp := now
		u.TermsAcceptedAt = &stamp
	}
	return true
}
