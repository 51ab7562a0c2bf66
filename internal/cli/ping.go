package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/ormkit/internal/config"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/internal/ui"
)

var errPingFailed = errors.New("ping failed")

func newPingCommand(root *RootOptions) *cobra.Command {
	var (
		watch   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := root.loader()
			cfg, err := loader.Load()
			if err != nil {
				return err
			}

			p := root.printer(cmd)
			err = ping(cmd.Context(), root, p, cfg, timeout)
			if !watch {
				return err
			}

			if loader.ConfigFileUsed() == "" {
				return runtime.Configf("--watch needs a config file")
			}
			p.Info("watching %s", loader.ConfigFileUsed())
			loader.Watch(func(cfg *config.Config, err error) {
				if err != nil {
					p.Error("reload: %v", err)
					return
				}
				_ = ping(cmd.Context(), root, p, cfg, timeout)
			})
			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "ping again whenever the config file changes")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")
	return cmd
}

func ping(ctx context.Context, root *RootOptions, p *ui.Printer, cfg *config.Config, timeout time.Duration) error {
	db, err := root.open(cfg)
	if err != nil {
		p.Error("%v", err)
		return err
	}
	defer db.Close(ctx)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := cfg.Database.Dialect
	if !db.Ping(ctx) {
		p.Error("%s is not reachable", target)
		return fmt.Errorf("%w: %s", errPingFailed, target)
	}
	p.Success("%s is reachable", target)
	return nil
}
