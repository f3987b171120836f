package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/logging"
)

var (
	ErrUnknownPlan = errors.New("unknown plan")
	ErrNoPlans     = errors.New("no plans available")
)

// PriceIDs are the configured fallback prices.
type PriceIDs struct {
	Monthly string
	Annual  string
}

// Checkout is the subset of client.Client used for billing.
type Checkout interface {
	Products(ctx context.Context) ([]models.Product, error)
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (string, error)
}

// BillingService lists subscription plans and opens checkout sessions.
type BillingService interface {
	Plans(ctx context.Context) ([]models.Product, error)
	CheckoutURL(ctx context.Context, plan string) (string, error)
}

type billingService struct {
	client   Checkout
	identity IdentityService
	prices   PriceIDs
	log      logging.Logger
}

func NewBillingService(c Checkout, id IdentityService, prices PriceIDs, log logging.Logger) BillingService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &billingService{client: c, identity: id, prices: prices, log: log.With("module", "billing")}
}

// Plans returns the backend products, or the configured prices when the
// backend cannot list them.
func (b *billingService) Plans(ctx context.Context) ([]models.Product, error) {
	list, err := b.client.Products(ctx)
	if err == nil {
		list = normalizePlans(list)
		if len(list) > 0 {
			return list, nil
		}
	}
	if err != nil {
		b.log.Warn(ctx, "products unavailable, using configured prices", "error", err.Error())
	}

	fallback := b.configured()
	if len(fallback) == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoPlans, err)
		}
		return nil, ErrNoPlans
	}
	return fallback, nil
}

func (b *billingService) configured() []models.Product {
	var out []models.Product
	if b.prices.Monthly != "" {
		out = append(out, models.Product{
			PriceID: b.prices.Monthly, Plan: models.PlanMonthly, Name: "FormAI Premium (monthly)", Interval: "month",
		})
	}
	if b.prices.Annual != "" {
		out = append(out, models.Product{
			PriceID: b.prices.Annual, Plan: models.PlanAnnual, Name: "FormAI Premium (annual)", Interval: "year",
		})
	}
	return out
}

// normalizePlans fills Plan from Interval and drops entries without a price.
func normalizePlans(list []models.Product) []models.Product {
	out := list[:0]
	for _, p := range list {
		if p.PriceID == "" {
			continue
		}
		if p.Plan == "" {
			switch strings.ToLower(p.Interval) {
			case "month":
				p.Plan = models.PlanMonthly
			case "year":
				p.Plan = models.PlanAnnual
			}
		}
		out = append(out, p)
	}
	return out
}

// CheckoutURL creates a checkout session for plan and returns its URL.
func (b *billingService) CheckoutURL(ctx context.Context, plan string) (string, error) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if plan != models.PlanMonthly && plan != models.PlanAnnual {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	plans, err := b.Plans(ctx)
	if err != nil {
		return "", err
	}
	var priceID string
	for _, p := range plans {
		if p.Plan == plan {
			priceID = p.PriceID
			break
		}
	}
	if priceID == "" {
		return "", fmt.Errorf("%w: %q has no price", ErrUnknownPlan, plan)
	}

	userID, err := b.identity.UserID(ctx)
	if err != nil {
		return "", err
	}
	email, err := b.identity.Email(ctx)
	if err != nil {
		return "", err
	}

	url, err := b.client.CreateCheckoutSession(ctx, models.CheckoutRequest{
		PriceID: priceID, UserID: userID, Email: email, Plan: plan,
	})
	if err != nil {
		return "", err
	}
	b.log.Info(ctx, "checkout session created", "plan", plan)
	return url, nil
}
