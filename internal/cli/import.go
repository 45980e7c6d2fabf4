package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"intune-store-importer/internal/adapters"
	"intune-store-importer/internal/app"
)

var errBatchFailed = errors.New("one or more applications failed to import")

type importOptions struct {
	AppsPath          string
	TenantID          string
	ClientID          string
	ClientSecret      string
	ClientSecretFile  string
	AccessToken       string
	GraphEndpoint     string
	AuthorityEndpoint string
	ManifestEndpoint  string
	DetailsEndpoint   string
	Market            string
	Language          string
	Workers           int
	SettleMode        string
	SettleDelay       time.Duration
	SettleTimeout     time.Duration
	HTTPTimeoutSec    int
	DryRun            bool
	ReportPath        string
}

func newImportCommand() *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import store applications and configure their assignments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AppsPath, "apps", "apps.yaml", "Apps file path (YAML or JSON)")
	cmd.Flags().StringVar(&opts.TenantID, "tenant-id", "", "Entra tenant id")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "App registration client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "App registration client secret")
	cmd.Flags().StringVar(&opts.ClientSecretFile, "client-secret-file", "", "Read the client secret from a file")
	cmd.Flags().StringVar(&opts.AccessToken, "access-token", "", "Pre-acquired Graph bearer token (skips client credentials)")
	cmd.Flags().StringVar(&opts.GraphEndpoint, "graph-endpoint", adapters.DefaultGraphEndpoint, "Graph API base URL")
	cmd.Flags().StringVar(&opts.AuthorityEndpoint, "authority", adapters.DefaultAuthorityEndpoint, "Token authority base URL")
	cmd.Flags().StringVar(&opts.ManifestEndpoint, "manifest-endpoint", adapters.DefaultManifestEndpoint, "Store package manifest base URL")
	cmd.Flags().StringVar(&opts.DetailsEndpoint, "details-endpoint", adapters.DefaultProductDetailsEndpoint, "Store product details base URL")
	cmd.Flags().StringVar(&opts.Market, "market", "US", "Store market for product details")
	cmd.Flags().StringVar(&opts.Language, "language", "en-US", "Store language for product details")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "Applications imported concurrently (1 = sequential)")
	cmd.Flags().StringVar(&opts.SettleMode, "settle-mode", string(app.SettleModeDelay), "Wait before assigning: delay or poll")
	cmd.Flags().DurationVar(&opts.SettleDelay, "settle-delay", 3*time.Second, "Fixed wait after creation in delay mode")
	cmd.Flags().DurationVar(&opts.SettleTimeout, "settle-timeout", 2*time.Minute, "Maximum wait for publication in poll mode")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 60, "HTTP timeout in seconds (0 = default)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Resolve metadata and print payloads without calling Graph")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "Write a JSON import report to this path")

	_ = viper.BindPFlag("apps", cmd.Flags().Lookup("apps"))
	_ = viper.BindPFlag("tenant_id", cmd.Flags().Lookup("tenant-id"))
	_ = viper.BindPFlag("client_id", cmd.Flags().Lookup("client-id"))
	_ = viper.BindPFlag("client_secret", cmd.Flags().Lookup("client-secret"))
	_ = viper.BindPFlag("client_secret_file", cmd.Flags().Lookup("client-secret-file"))
	_ = viper.BindPFlag("access_token", cmd.Flags().Lookup("access-token"))
	_ = viper.BindPFlag("graph_endpoint", cmd.Flags().Lookup("graph-endpoint"))
	_ = viper.BindPFlag("authority", cmd.Flags().Lookup("authority"))
	_ = viper.BindPFlag("manifest_endpoint", cmd.Flags().Lookup("manifest-endpoint"))
	_ = viper.BindPFlag("details_endpoint", cmd.Flags().Lookup("details-endpoint"))
	_ = viper.BindPFlag("market", cmd.Flags().Lookup("market"))
	_ = viper.BindPFlag("language", cmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("settle_mode", cmd.Flags().Lookup("settle-mode"))
	_ = viper.BindPFlag("settle_delay", cmd.Flags().Lookup("settle-delay"))
	_ = viper.BindPFlag("settle_timeout", cmd.Flags().Lookup("settle-timeout"))
	_ = viper.BindPFlag("http_timeout_sec", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("report", cmd.Flags().Lookup("report"))

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, opts importOptions) error {
	secret, err := resolveClientSecret(cmd, opts)
	if err != nil {
		return err
	}
	dryRun := resolveBool(cmd, opts.DryRun, "dry_run", "dry-run")
	service, err := app.NewService(app.ServiceConfig{
		ManifestEndpoint:       resolveString(cmd, opts.ManifestEndpoint, "manifest_endpoint", "manifest-endpoint"),
		ProductDetailsEndpoint: resolveString(cmd, opts.DetailsEndpoint, "details_endpoint", "details-endpoint"),
		GraphEndpoint:          resolveString(cmd, opts.GraphEndpoint, "graph_endpoint", "graph-endpoint"),
		AuthorityEndpoint:      resolveString(cmd, opts.AuthorityEndpoint, "authority", "authority"),
		Market:                 resolveString(cmd, opts.Market, "market", "market"),
		Language:               resolveString(cmd, opts.Language, "language", "language"),
		TenantID:               resolveString(cmd, opts.TenantID, "tenant_id", "tenant-id"),
		ClientID:               resolveString(cmd, opts.ClientID, "client_id", "client-id"),
		ClientSecret:           secret,
		AccessToken:            resolveString(cmd, opts.AccessToken, "access_token", "access-token"),
		HTTPTimeoutSec:         resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout_sec", "http-timeout"),
	})
	if err != nil {
		return err
	}

	batch, err := service.Import(ctx, app.ImportRequest{
		AppsPath: resolveString(cmd, opts.AppsPath, "apps", "apps"),
		Workers:  resolveInt(cmd, opts.Workers, "workers", "workers"),
		Settle: app.SettleConfig{
			Mode:    app.SettleMode(resolveString(cmd, opts.SettleMode, "settle_mode", "settle-mode")),
			Delay:   resolveDuration(cmd, opts.SettleDelay, "settle_delay", "settle-delay"),
			Timeout: resolveDuration(cmd, opts.SettleTimeout, "settle_timeout", "settle-timeout"),
		},
		DryRun:     dryRun,
		ReportPath: resolveString(cmd, opts.ReportPath, "report", "report"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		for _, result := range batch.Results {
			if result.Descriptor == nil {
				continue
			}
			payload, err := adapters.EncodeAppPayload(*result.Descriptor)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# %s\n%s\n", result.PackageIdentifier, payload)
		}
	}
	fmt.Fprintln(out, renderSummary(batch.Results))
	fmt.Fprintf(out, "run %s: %d succeeded, %d failed\n", batch.RunID, batch.Succeeded, batch.Failed)
	if batch.Failed > 0 {
		return errBatchFailed
	}
	return nil
}

func resolveClientSecret(cmd *cobra.Command, opts importOptions) (string, error) {
	secret := resolveString(cmd, opts.ClientSecret, "client_secret", "client-secret")
	path := resolveString(cmd, opts.ClientSecretFile, "client_secret_file", "client-secret-file")
	if strings.TrimSpace(path) == "" {
		return secret, nil
	}
	if strings.TrimSpace(secret) != "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("client-secret and client-secret-file are mutually exclusive")
	}
	return adapters.ReadSecretFile(path)
}
