// Package services contains the application services of the FormAI client.
//
// ScanPipeline turns a photo into an analysis (optimize, preflight, upload).
// BillingService lists plans and opens checkout sessions. SettingsService and
// IdentityService keep small pieces of user state in the metadata store.
package services
