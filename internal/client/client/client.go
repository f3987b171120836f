package client

import (
	"context"

	"github.com/dmitrijs2005/formai/internal/client/models"
)

type Client interface {
	Close() error
	Analyze(ctx context.Context, img models.OptimizedImage) (*models.AnalysisResult, error)
	SubscriptionStatus(ctx context.Context, userID string) (*models.SubscriptionStatus, error)
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (string, error)
	Products(ctx context.Context) ([]models.Product, error)
}
