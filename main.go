package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/phonebook/cli/api"
	"github.com/oaiiae/phonebook/cli/logger"
	"github.com/oaiiae/phonebook/cli/tui"
	"github.com/oaiiae/phonebook/datastores"
	"github.com/oaiiae/phonebook/phonebook"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	Host              string        `short:"H" doc:"host to listen on"                          default:""`
	Port              string        `short:"p" doc:"port to listen on"                          default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers"       default:"15s"`
	Prefix            string        `          doc:"mount endpoints at a prefix"                default:"/api"`
	LogLevel          string        `          doc:"log from debug, info, warn or error"`
	LogFile           string        `          doc:"append logs to file, - for stdout"`
	LogFormat         string        `          doc:"format logs as text or json"                default:"text"`
	URL               string        `          doc:"persons collection the tui talks to"        default:"http://localhost:8888/api/persons/"`
	Notice            time.Duration `          doc:"how long tui notices stay visible"          default:"5s"`
}

func (o *Options) logger() *logger.Options {
	return &logger.Options{Level: o.LogLevel, File: o.LogFile, Format: o.LogFormat}
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := logger.New(options.logger(), os.Stdout)
		srv := api.NewServer(
			&api.ServerOptions{
				Host:              options.Host,
				Port:              options.Port,
				ReadHeaderTimeout: options.ReadHeaderTimeout,
			},
			api.NewRouter(&api.RouterOptions{EndpointsPrefix: options.Prefix},
				"Phonebook", version, revision, created,
				datastores.NewContactsInmem(api.SeedContacts()...),
				logger,
			),
			logger,
		)
		hooks.OnStart(func() {
			logger.Info("listening", "addr", srv.Addr, "version", version)
			err := srv.ListenAndServe()
			if err != http.ErrServerClosed {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Warn("could not shutdown the server", "err", err)
			}
		})
	})

	cli.Root().Use = "phonebook"
	cli.Root().Version = version
	cli.Root().AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Manage the phonebook of a running server from the terminal",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			// the terminal belongs to the tui, logs only go to --log-file
			logger := logger.New(options.logger(), nil)
			err := tui.Run(cmd.Context(),
				&tui.Options{Notice: options.Notice},
				phonebook.NewClient(options.URL),
				logger,
			)
			if err != nil {
				logger.LogAttrs(context.Background(), slog.LevelError, "tui failed", slog.Any("err", err))
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}),
	})

	cli.Run()
}
