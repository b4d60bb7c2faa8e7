package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/webrequest/internal/app"
	"github.com/samvad-hq/webrequest/internal/config"
	"github.com/samvad-hq/webrequest/internal/logger"
	"github.com/samvad-hq/webrequest/pkg/jsonarray"
	"github.com/samvad-hq/webrequest/pkg/webrequest"
)

// errFailedFetch marks a json fetch that delivered an error sentinel.
var errFailedFetch = errors.New("fetch failed")

// cli holds what PersistentPreRunE prepares for the subcommands.
type cli struct {
	cfg *config.Config
	log *logger.ZapLogger
}

// close flushes the logger whether or not the command succeeded.
func (c *cli) close() {
	_ = c.log.Sync()
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "webrequest",
		Short:         "Fetch URLs and classify the outcome",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// stdout carries fetched bodies and envelopes, so logs go to stderr.
			log, err := logger.New(cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.cfg = cfg
			c.log = log
			return nil
		},
	}

	root.AddCommand(
		c.getCmd(),
		c.jsonCmd(),
		c.wrapCmd(),
		c.pollCmd(),
		c.historyCmd(),
	)
	return root
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a URL and log the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.NewRequester(c.cfg, c.log).FetchAndLog(cmd.Context(), args[0])
			return nil
		},
	}
}

func (c *cli) jsonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json <url>",
		Short: "Fetch a URL and print the body or its error token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			app.NewRequester(c.cfg, c.log).FetchJSON(cmd.Context(), args[0], func(s string) {
				text = s
			})
			fmt.Fprintln(cmd.OutOrStdout(), text)
			if code, ok := webrequest.ResultCode(text); ok {
				return fmt.Errorf("%w: result %s", errFailedFetch, code)
			}
			return nil
		},
	}
}

func (c *cli) wrapCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "wrap",
		Short: "Wrap a bare JSON array from stdin into an items envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			wrapped := jsonarray.WrapArray(strings.TrimSpace(string(raw)))
			if check {
				if _, err := jsonarray.Decode[any](wrapped); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), wrapped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail if the wrapped envelope does not decode")
	return cmd
}

func (c *cli) pollCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch the configured targets on the poll interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c.log.InfoObj("poller starting", "config", c.cfg)

			poller, err := app.NewPoller(ctx, c.cfg, c.log)
			if err != nil {
				c.log.ErrorObj("failed to initialize poller", "error", err)
				return err
			}
			if once {
				defer poller.Close()
				_, err := poller.RunOnce(ctx)
				return err
			}
			if err := poller.Run(ctx); err != nil {
				return fmt.Errorf("poller run: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "fetch every target a single time and exit")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "history <url>",
		Short: "Print the stored outcomes for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(c.cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			records, err := store.History(args[0])
			if err != nil {
				return err
			}
			out, err := jsonarray.Encode(records, !compact)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	return cmd
}
