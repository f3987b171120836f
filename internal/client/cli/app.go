package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/client"
	"github.com/dmitrijs2005/formai/internal/client/config"
	"github.com/dmitrijs2005/formai/internal/client/entitlement"
	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/health"
	"github.com/dmitrijs2005/formai/internal/client/imageopt"
	"github.com/dmitrijs2005/formai/internal/client/imagestore"
	"github.com/dmitrijs2005/formai/internal/client/platform"
	"github.com/dmitrijs2005/formai/internal/client/services"
	"github.com/dmitrijs2005/formai/internal/filex"
	"github.com/dmitrijs2005/formai/internal/logging"
	"go.uber.org/multierr"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App holds every long-lived component of the client.
type App struct {
	config   *config.Config
	log      logging.Logger
	out      io.Writer
	reader   *bufio.Reader
	platform platform.Provider

	db          *sql.DB
	client      client.Client
	validator   *health.Validator
	coordinator *entitlement.Coordinator
	billing     services.BillingService
	settings    services.SettingsService
	identity    services.IdentityService

	closers []io.Closer

	modeMu sync.Mutex
	Mode   Mode
}

// NewApp builds the App from cfg. The local database is created under
// cfg.DataDir; the entitlement state is loaded before NewApp returns.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	variant, err := platform.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	p := platform.New(variant)

	if _, err := filex.EnsureDir(cfg.DataDir, ""); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, cfg.DatabasePath()+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config:   cfg,
		log:      log,
		out:      out,
		reader:   bufio.NewReader(os.Stdin),
		platform: p,
		db:       db,
	}
	a.closers = append(a.closers, db)

	fetcher := fetch.New(&http.Client{}, p, log, fetch.WithDefaults(cfg.UploadTimeout, cfg.MaxRetries))
	api := client.NewHTTPClient(fetcher, cfg.BackendURL, cfg.UploadTimeout, log)
	a.client = api
	a.closers = append(a.closers, api)

	var prober health.Prober = health.NewHTTPProber(fetcher, p, cfg.BackendURL, cfg.HealthTimeout)
	if cfg.GRPCHealthAddr != "" {
		gp, err := health.NewGRPCProber(cfg.GRPCHealthAddr, p, cfg.HealthTimeout)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("grpc health: %w", err)
		}
		a.closers = append(a.closers, gp)
		prober = gp
	}
	a.validator = health.NewValidator(prober, log)

	store, err := imagestore.New(ctx, imagestore.Config{
		Kind: imagestore.Kind(cfg.ImageStore),
		Dir:  cfg.ImageDir(),
		S3: imagestore.S3Config{
			Bucket: cfg.S3Bucket, Region: cfg.S3Region, Endpoint: cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey, SecretKey: cfg.S3SecretKey,
		},
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("image store: %w", err)
	}

	format, err := imageopt.ParseFormat(cfg.ImageFormat)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	pipeline := services.NewScanPipeline(imageopt.New(p, log), a.validator, api, imageopt.Options{
		MaxDimension: cfg.ImageMaxDimension, Quality: cfg.ImageQuality, Format: format,
		Lossless: cfg.ImageLossless,
	}, log)

	repos := client.NewRepositories(db)
	a.identity = services.NewIdentityService(repos.Metadata, log)
	a.settings = services.NewSettingsService(repos.Metadata)
	a.billing = services.NewBillingService(api, a.identity,
		services.PriceIDs{Monthly: cfg.PriceIDMonthly, Annual: cfg.PriceIDAnnual}, log)

	a.coordinator = entitlement.New(entitlement.Deps{
		Metadata: repos.Metadata,
		History:  repos.History,
		Images:   store,
		Status:   api,
		Scanner:  pipeline,
		Identity: a.identity,
		Platform: p,
		Logger:   log,
	}, entitlement.Config{FreeScanLimit: cfg.FreeScanLimit, TokenKey: []byte(cfg.EntitlementKey)})
	a.coordinator.OnPaywall(a.showPaywall)

	if err := a.coordinator.Init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases every component, reporting all failures.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i].Close())
	}
	a.closers = nil
	return err
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// StartOnlineStatusWatcher polls the health endpoint every interval until ctx
// is done and switches Mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.validator.CheckHealth(ctx).OK {
				a.setMode(ctx, ModeOnline)
			} else {
				a.setMode(ctx, ModeOffline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) showPaywall(ev entitlement.PaywallEvent) {
	switch ev.Reason {
	case entitlement.ReasonPremiumEnded:
		fmt.Fprintln(a.out, "Your premium subscription has ended.")
	case entitlement.ReasonServerQuota:
		fmt.Fprintln(a.out, "You have used all of your free scans.")
	default:
		fmt.Fprintf(a.out, "You have used %d of %d free scans.\n", ev.ScansUsed, ev.Limit)
	}
	fmt.Fprintln(a.out, "Run 'plans' to see subscriptions and 'subscribe <monthly|annual>' to upgrade.")
}
