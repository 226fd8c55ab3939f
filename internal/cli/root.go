// Package cli implements the referral-admin command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"referral-tracker-backend/internal/common/cache"
	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/common/logger"
	"referral-tracker-backend/internal/features/referral/service"
	"referral-tracker-backend/internal/platform/storage"
)

// OpenFunc connects the configured storage.
type OpenFunc func(ctx context.Context, cfg *config.Config, migrate bool) (*storage.Resources, error)

// RootOptions is shared by every subcommand.
type RootOptions struct {
	Verbose bool

	cfg  *config.Config
	open OpenFunc
}

// NewRootCommand builds the admin CLI. A nil open uses storage.Open.
func NewRootCommand(open OpenFunc) *cobra.Command {
	if open == nil {
		open = storage.Open
	}
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "referral-admin",
		Short:         "Administer the referral tracker storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logger.InitWithWriter(cmd.ErrOrStderr(), "referral-admin", cfg.Debug || opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewMilestonesCommand(opts))

	return cmd
}

// withService opens storage, builds the referral service and runs fn against it.
func (o *RootOptions) withService(ctx context.Context, fn func(service.ReferralService) error) error {
	res, err := o.open(ctx, o.cfg, false)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer res.Close()

	var svcOpts []service.Option
	if o.cfg.Cache.Enabled && res.Redis != nil {
		svcOpts = append(svcOpts, service.WithCache(cache.NewCacheService(res.Redis.Client), o.cfg.Cache.TTL))
	}
	return fn(service.NewReferralService(res.Store, svcOpts...))
}
