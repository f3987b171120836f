package entitlement

// Local storage keys.
const (
	KeyScanCount          = "scan_count"
	KeyPremium            = "premium"
	KeyPremiumExpiresAt   = "premium_expires_at"
	KeyPremiumPlan        = "premium_plan"
	KeyQuotaExceeded      = "quota_exceeded"
	KeyEntitlementToken   = "entitlement_token"
	KeyWelcomeSeen        = "welcome_seen"
	KeyFirstScanCompleted = "first_scan_completed"
)
