package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"certgen/internal/catalog"
	"certgen/internal/certificate/normalize"
	"certgen/internal/certificate/render"
	"certgen/internal/certificate/service"
	"certgen/internal/certificate/store"
	"certgen/internal/platform/config"
	"certgen/internal/platform/logger"
	id "certgen/pkg/domain"
)

const programName = "certctl"

// globalOptions are the persistent flags. Empty values fall back to the
// CERTGEN_* environment configuration.
type globalOptions struct {
	dbPath   string
	owner    string
	catalog  string
	assetDir string
	logLevel string
}

// env is what every subcommand works with once the flags are resolved.
type env struct {
	cfg     config.Config
	log     *slog.Logger
	owner   id.OwnerID
	store   *store.SQLiteStore
	service *service.Service
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          programName,
		Short:        "Generate certificate batches from CSV rosters",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default $CERTGEN_SQLITE_PATH)")
	root.PersistentFlags().StringVar(&opts.owner, "owner", "", "owner id that records are filed under")
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "catalog override file")
	root.PersistentFlags().StringVar(&opts.assetDir, "assets", "", "directory holding logos and signatures")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		generateCommand(opts),
		approvedCommand(opts),
		recordsCommand(opts),
		reviewCommand(opts),
		tokenCommand(opts),
	)
	return root
}

// config resolves the environment configuration and applies flag overrides.
func (o *globalOptions) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.SQLitePath = o.dbPath
	}
	if o.catalog != "" {
		cfg.CatalogPath = o.catalog
	}
	if o.assetDir != "" {
		cfg.AssetDir = o.assetDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func (o *globalOptions) ownerID() (id.OwnerID, error) {
	if o.owner == "" {
		return id.OwnerID{}, fmt.Errorf("--owner is required")
	}
	return id.ParseOwnerID(o.owner)
}

// open builds the certificate service over the SQLite store. Callers must
// close the returned env.
func (o *globalOptions) open(cmd *cobra.Command) (*env, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	owner, err := o.ownerID()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	norm, err := normalize.New(cat.Aliases())
	if err != nil {
		return nil, err
	}
	st, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(cat, norm, st, render.New(log),
		service.WithLogger(log),
		service.WithAssetDir(cfg.AssetDir),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, owner: owner, store: st, service: svc}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
