package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/aii-robotic-labs/http-privacy/pkg/backend"
	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/imagegen"
)

func runGenerateImage(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		req    backendtypes.ImageRequest
		out    string
	)
	fs := pflag.NewFlagSet("generate-image", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	fs.StringVarP(&req.Prompt, "prompt", "p", "", "text prompt (required)")
	fs.IntVar(&req.Width, "width", imagegen.DefaultWidth, "image width in pixels")
	fs.IntVar(&req.Height, "height", imagegen.DefaultHeight, "image height in pixels")
	fs.IntVar(&req.Steps, "steps", imagegen.DefaultSteps, "diffusion steps")
	fs.StringVarP(&out, "out", "o", "output.png", "output file")

	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	if req.Prompt == "" {
		return errors.New("--prompt is required")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	client, err := imagegen.New(cfg.Image, backend.NewOutboundTransport())
	if err != nil {
		return err
	}
	if err := client.GenerateToFile(ctx, req, out); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Image saved as %s\n", out)
	return nil
}
