package models

// Plan names accepted by checkout.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// Product is a purchasable subscription price.
type Product struct {
	PriceID  string `json:"priceId"`
	Plan     string `json:"plan"`
	Name     string `json:"name,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// CheckoutRequest is the body sent to create a checkout session.
type CheckoutRequest struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
	Email   string `json:"email,omitempty"`
	Plan    string `json:"plan"`
}

// Settings are the user-adjustable preferences.
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
}
