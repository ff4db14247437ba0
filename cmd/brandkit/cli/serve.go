package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brandkit/brandkit/internal/server"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/telemetry"
)

const banner = `
 ___  ___    _   _  _ ___  _  _ ___ _____
| _ )| _ \  /_\ | \| |   \| |/ /|_ _|_   _|
| _ \|   / / _ \| .| | |) | ' <  | |  | |
|___/|_|_\/_/ \_\_|\_|___/|_|\_\|___| |_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the management API server",
		Long:  "Start the HTTP server that exposes the brand and API key management REST API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(dev)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "path", resolveDataDir())

	ch, err := openCache(logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	auth := service.NewAuthenticator(st, jwtSecret(), logger)
	keys := service.NewKeyService(st, logger)

	ctx := context.Background()

	owners, err := st.CountOwners(ctx)
	if err != nil {
		logger.Warn("failed to check for owners", "error", err)
	}
	if owners == 0 {
		logger.Warn("no owner account found - run: brandkit owner create")
	}

	tracker := telemetry.New(ctx, st, func() telemetry.Properties {
		brands, _ := st.CountBrandsAll(ctx)
		apiKeys, _ := st.CountAPIKeys(ctx)
		ownerCount, _ := st.CountOwners(ctx)
		return telemetry.Properties{
			Version: appVersion,
			Brands:  brands,
			APIKeys: apiKeys,
			Owners:  ownerCount,
		}
	})
	if tracker != nil {
		telemetry.PrintNotice()
		tracker.Start()
		defer tracker.Shutdown()
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     viper.GetStringSlice("server.cors.origins"),
		RateLimit:       viper.GetInt("server.rate_limit_per_minute"),
		MaxBodySize:     1 * 1024 * 1024,
	}
	if len(srvCfg.CORSOrigins) == 0 {
		srvCfg.CORSOrigins = []string{"*"}
	}
	if srvCfg.RateLimit == 0 {
		srvCfg.RateLimit = 300
	}

	srv := server.New(srvCfg, st, auth, keys, ch, logger)

	fmt.Printf("→ BrandKit %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
