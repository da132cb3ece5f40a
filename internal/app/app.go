// Package app wires configuration, logging, backends and the HTTP server into the http-privacy
// command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/config"
)

const usage = `Usage: http-privacy <command> [flags]

Commands:
  serve            run the dispatch server (default)
  generate-image   generate one image with the Stability text-to-image API
  help             show this message

Run "http-privacy <command> --help" for the flags of a command.
`

// Run executes the command named by args[0]; with no command it serves.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return runServe(ctx, args, stderr)
	case "generate-image":
		return runGenerateImage(ctx, args, stdout, stderr)
	case "help":
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	default:
		_, _ = fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// commonFlags are shared by every command that reads the configuration
type commonFlags struct {
	configPath string
	envFiles   []string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "path to the YAML configuration file")
	fs.StringSliceVar(&c.envFiles, "env-file", nil, "dotenv files to load (default ./.env if present)")
}

// load reads env files then the configuration
func (c *commonFlags) load() (*backendtypes.BackendConfig, error) {
	if err := config.LoadEnvFiles(c.envFiles...); err != nil {
		return nil, err
	}
	return config.Load(c.configPath)
}

// parseFlags parses args; a help request is reported as errHelp so callers can exit cleanly
func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

var errHelp = errors.New("help requested")

// applyListen overrides server.host and server.port from a host:port string
func applyListen(cfg *backendtypes.BackendConfig, listen string) error {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Errorf("invalid --listen %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid --listen port %q: %w", portStr, err)
	}
	cfg.Server.Host = host
	cfg.Server.Port = port
	return config.Validate(cfg)
}
