package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nonibytes/zenscan/pkg/zenscan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/store"
)

func newScansCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "Work with the scan list",
	}
	cmd.AddCommand(newScansListCommand(a), newScansSyncCommand(a))
	return cmd
}

func newScansListCommand(a *app) *cobra.Command {
	var (
		opts  store.ListOptions
		after string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scans from the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var scans []scan.Descriptor
			next := ""
			if opts.Limit > 0 || after != "" {
				page, err := st.Page(ctx, opts, after)
				if err != nil {
					return err
				}
				scans, next = page.Scans, page.Next
			} else if scans, err = st.List(ctx, opts); err != nil {
				return err
			}
			if err := PrintScanList(a.stdout, a.format(), scans); err != nil {
				return err
			}
			if next != "" {
				fmt.Fprintf(a.stderr, "more scans: --after %s\n", next)
			}
			if at, ok, err := st.LastSync(ctx); err == nil && ok && a.format() == FormatPretty {
				a.log.Info("store last synced", "at", at.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.NamePrefix, "prefix", "", "only scans whose name starts with this")
	cmd.Flags().BoolVar(&opts.ActiveOnly, "active", false, "only active scans")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (0 for all)")
	cmd.Flags().StringVar(&after, "after", "", "resume after this cursor from a previous page")
	return cmd
}

func newScansSyncCommand(a *app) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the scan list into the local store, optionally following changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := a.openOptions()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			opts.Registerer = reg
			if addr := a.cfg.Metrics.Addr; addr != "" {
				stop := serveMetrics(a, addr, reg)
				defer stop()
			}

			client, err := zenscan.Open(ctx, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			stats, err := client.QueryScans(ctx)
			if err != nil {
				return err
			}
			PrintStats(a.stdout, a.format(), stats)
			if !follow {
				return nil
			}

			err = client.SubscribeScans(ctx, func(s scanlist.ApplyStats, err error) {
				if err == nil {
					PrintStats(a.stdout, a.format(), s)
				}
			})
			if err != nil {
				return err
			}
			a.log.Info("following scan list", "scans", client.Scans().Len())
			<-ctx.Done()

			unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.UnsubscribeScans(unsubCtx)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep applying scan list changes until interrupted")
	return cmd
}

func serveMetrics(a *app, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.log.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
