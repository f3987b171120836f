package services

// Metadata keys owned by the services in this package.
const (
	KeySettings            = "settings"
	KeyOnboardingCompleted = "onboarding_completed"
	KeyUserID              = "user_id"
	KeyUserEmail           = "user_email"
	KeyInstallSeed         = "install_seed"
)
