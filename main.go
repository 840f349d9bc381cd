package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/libp2p/go-reuseport"
	"github.com/urfave/cli/v2"
	"github.com/valyala/fasthttp"
	"k8s.io/klog/v2"

	"github.com/lichess-explorer/openingexplorer/importer"
	"github.com/lichess-explorer/openingexplorer/indexer"
	"github.com/lichess-explorer/openingexplorer/opening"
	"github.com/lichess-explorer/openingexplorer/query"
	"github.com/lichess-explorer/openingexplorer/store"
)

var gitCommitSHA = ""

const (
	defaultBind = "127.0.0.1:9000"
	defaultDB   = "./_db"
)

func main() {
	// set up a context that is canceled when the process is interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		// Allow any further SIGTERM or SIGINT to kill process
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "openingexplorer",
		Version:     gitCommitSHA,
		Description: "Lichess-style opening explorer: position-indexed master and personal game statistics backed by an embedded KV store.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "address to listen on",
				Value: defaultBind,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the store directory",
				Value: defaultDB,
			},
		}, NewKlogFlagSet()...),
		Action: func(c *cli.Context) error {
			return run(ctx, c.String("bind"), c.String("db"))
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}

func run(ctx context.Context, bind, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", dbPath, err)
	}
	defer st.Close()

	openings := opening.Build()
	assembler := query.New(st, openings)
	im := importer.New(st)
	ix := indexer.New()
	srv := newServer(assembler, im, ix, st)

	ln, err := reuseport.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", bind, err)
	}

	httpSrv := &fasthttp.Server{
		Handler: fasthttp.CompressHandler(srv.handle),
		Name:    "openingexplorer",
	}

	serveErr := make(chan error, 1)
	go func() {
		klog.Infof("listening on %s, db at %s", bind, dbPath)
		serveErr <- httpSrv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		klog.Info("shutting down")
		return httpSrv.Shutdown()
	case err := <-serveErr:
		return err
	}
}
