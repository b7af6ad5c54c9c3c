package download

import (
	"strings"
	"time"

	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/notify"
)

// DenialCategory is the presentation bucket for a server-declared denial.
type DenialCategory string

const (
	DenialQuotaExceeded        DenialCategory = "quota_exceeded"
	DenialUpgradeRequired      DenialCategory = "upgrade_required"
	DenialSubscriptionRequired DenialCategory = "subscription_required"
	DenialGeneric              DenialCategory = "generic"
)

// classifyDenial buckets the remote reason text. Quota wording is matched
// first so "daily quota limit exceeded" never reads as an upgrade prompt.
func classifyDenial(reason string) DenialCategory {
	r := strings.ToLower(reason)
	switch {
	case r == "":
		return DenialGeneric
	case strings.Contains(r, "quota"):
		return DenialQuotaExceeded
	case strings.Contains(r, "upgrade") || strings.Contains(r, "premium"):
		return DenialUpgradeRequired
	case strings.Contains(r, "subscription") || strings.Contains(r, "subscribe"):
		return DenialSubscriptionRequired
	default:
		return DenialGeneric
	}
}

// denialNotification maps a denial to its title/body pair. The quota bucket
// appends the formatted reset time when the snapshot carries one.
func denialNotification(reason string, quota *entitlement.QuotaInfo) notify.Notification {
	switch classifyDenial(reason) {
	case DenialQuotaExceeded:
		body := reason
		if quota != nil && !quota.ResetTime.IsZero() {
			body += ". Credits reset at " + formatResetTime(quota.ResetTime)
		}
		return notify.Notification{Title: "Credit Exceeded", Body: body, Severity: notify.SeverityDestructive}
	case DenialUpgradeRequired:
		return notify.Notification{Title: "Upgrade Required", Body: reason, Severity: notify.SeverityDestructive}
	case DenialSubscriptionRequired:
		return notify.Notification{Title: "Subscription Required", Body: reason, Severity: notify.SeverityDestructive}
	default:
		body := reason
		if body == "" {
			body = "Unable to start the download. Please try again."
		}
		return notify.Notification{Title: "Download Failed", Body: body, Severity: notify.SeverityDestructive}
	}
}

func formatResetTime(t time.Time) string {
	return t.UTC().Format("2 Jan 2006 15:04 MST")
}
