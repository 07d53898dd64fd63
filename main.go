package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-webbeans/framework/app"
	"github.com/km-arc/go-webbeans/framework/config"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/logging"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "webbeans",
		Short:         "Contexts and dependency injection container",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default .env)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newValidateCmd(&envFiles))
	rootCmd.AddCommand(newServeCmd(&envFiles))
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "webbeans %s\n", app.Version)
			return nil
		},
	}
}

func newValidateCmd(envFiles *[]string) *cobra.Command {
	var descriptorPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Deploy the descriptor and report every defect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return err
			}
			if descriptorPath != "" {
				cfg.Descriptor.Path = descriptorPath
			}

			a, err := app.New(cfg, nil)
			if err != nil {
				return err
			}
			err = a.Boot(cmd.Context())
			if a.Booted() {
				defer a.Container.Shutdown(context.Background())
			}
			return report(cmd.OutOrStdout(), a, err)
		},
	}
	cmd.Flags().StringVarP(&descriptorPath, "file", "f", "", "descriptor to validate (default descriptor.path)")
	return cmd
}

// errInvalid is returned after the defects were printed.
var errInvalid = errors.New("deployment is invalid")

func report(out io.Writer, a *app.Application, err error) error {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	info := color.New(color.FgCyan)

	source := a.Descriptor.Source
	if source == "" {
		source = "(no descriptor)"
	}
	info.Fprintf(out, "descriptor: %s\n", source)

	var de *container.DeploymentError
	switch {
	case err == nil:
		enabled := 0
		for _, b := range a.Container.Beans() {
			if b.Enabled() {
				enabled++
			}
		}
		ok.Fprintf(out, "✓ deployment is valid: %d beans, %d enabled\n", len(a.Container.Beans()), enabled)
		return nil
	case errors.As(err, &de):
		bad.Fprintf(out, "✗ %d deployment error(s)\n", len(de.Errs))
		for _, e := range de.Errs {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return errInvalid
	default:
		return err
	}
}

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Deploy and serve HTTP until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}
