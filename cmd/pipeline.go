package cmd

import (
	"context"
	"log/slog"

	"topicast/internal/app"
	"topicast/pkg/config"
)

// openPipeline loads config and wires a pipeline. The returned func
// releases the store and blob connections.
func openPipeline(ctx context.Context) (*app.Pipeline, *config.Config, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := service.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Failed to close connections", "error", err)
		}
	}
	return app.NewPipeline(service), cfg, closeFn, nil
}
