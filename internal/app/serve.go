package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/aii-robotic-labs/http-privacy/pkg/backend"
	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
	"github.com/aii-robotic-labs/http-privacy/pkg/factory"
	"github.com/aii-robotic-labs/http-privacy/pkg/forward"
	"github.com/aii-robotic-labs/http-privacy/pkg/logging"
	"github.com/aii-robotic-labs/http-privacy/pkg/metrics"
	"github.com/aii-robotic-labs/http-privacy/pkg/preprocess"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	var (
		common commonFlags
		listen string
		debug  bool
	)
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	fs.StringVar(&listen, "listen", "", "listen address host:port (overrides server.host and server.port)")
	fs.BoolVar(&debug, "debug", false, "log at debug level")

	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if listen != "" {
		if err := applyListen(cfg, listen); err != nil {
			return err
		}
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := BuildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return server.ListenAndServeWithGracefulShutdown(ctx)
}

// BuildServer constructs every collaborator of the facade from cfg and returns the server.
// ctx scopes background token fetches of the forward client.
func BuildServer(ctx context.Context, cfg *backendtypes.BackendConfig, logger logrus.FieldLogger) (*backend.Server, error) {
	transport := backend.NewOutboundTransport()
	httpClient := backend.NewOutboundClient(transport)

	providerFactory := factory.NewProviderFactory()
	factory.RegisterDefaultProviders(providerFactory, httpClient)
	backends, err := providerFactory.BuildBackends(ctx, cfg.Backends)
	if err != nil {
		return nil, fmt.Errorf("failed to build backends: %w", err)
	}

	forwarder, err := forward.New(ctx, cfg.Forward, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward client: %w", err)
	}

	var collector *metrics.Collector
	opts := dispatch.Options{
		Preprocessor: preprocess.New(cfg.Preprocess),
		Forwarder:    forwarder,
		Backends:     backends,
		Logger:       logger,
	}
	if !cfg.Metrics.Disabled {
		collector = metrics.NewCollector()
		opts.Recorder = collector
	}

	facade, err := dispatch.New(opts)
	if err != nil {
		return nil, err
	}
	return backend.NewServer(*cfg, facade, logger, collector), nil
}
