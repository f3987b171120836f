// Package entitlement decides whether the user may scan.
//
// A Coordinator owns the free-scan counter, the premium status and the paywall
// flag. It is initialized from local storage, reconciled with the backend and
// mirrors every change back to local storage.
//
// States:
//
//	Unknown -> FreeAvailable | FreeExhausted | Premium   (Init)
//	FreeAvailable -> FreeExhausted                       (limit reached, or 402 + paywall)
//	any -> Premium                                       (purchase, remote active)
//	Premium -> FreeAvailable | FreeExhausted             (expiry, remote inactive, debug reset)
//
// The paywall is raised once per transition into FreeExhausted. Scans blocked
// while exhausted return ErrPaywallRequired without raising it again.
package entitlement
