package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/swipearr/internal/services"
	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

// api returns a raw client for the stored connection.
func (r *Runner) api() (*services.APIService, error) {
	if _, err := r.Session(); err != nil {
		return nil, err
	}
	cfg := r.backend.Config()
	if cfg == nil {
		return nil, fmt.Errorf("%w: run 'swipearr connect' first", shared.ErrNotConfigured)
	}
	return services.NewAPIService(cfg.BaseURL, cfg.APIKey, r.httpClient), nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the Maintainerr API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	api, err := r.api()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the Maintainerr API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	api, err := r.api()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}
