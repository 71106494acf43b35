// Command pricewatch prints a live price board fed by the server's relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	pkglogger "github.com/paddygate/paddygate/pkg/logger"
	"github.com/paddygate/paddygate/pkg/paddyclient"
)

func main() {
	server := flag.String("server", "http://localhost:5000", "API base URL")
	district := flag.String("district", "", "only show prices for this district")
	variety := flag.String("variety", "", "only show prices for this rice variety")
	origin := flag.String("origin", "", "Origin header for the relay handshake")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger := pkglogger.New(os.Stderr, *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *server, *district, *variety, *origin, logger); err != nil {
		logger.Error("pricewatch failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, server, district, variety, origin string, logger *slog.Logger) error {
	api := paddyclient.New(server)
	initial, err := api.Prices(ctx, district, variety)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	board := paddyclient.NewBoard(initial)
	go board.Run(ctx)
	render(os.Stdout, initial)

	// The relay carries every mill's prices; keep the board to the loaded filter.
	filter := paddyclient.PriceFilter{District: district, RiceVariety: variety}
	relay := paddyclient.NewRelay(server, filter.Events(board.Dispatch))
	if origin != "" {
		relay.SetOrigin(origin)
	}
	go keepConnected(ctx, relay, logger)

	for {
		select {
		case <-ctx.Done():
			_ = relay.Disconnect()
			return nil
		case state := <-board.Updates():
			render(os.Stdout, state)
		}
	}
}

// keepConnected reconnects with capped exponential backoff until ctx is done.
func keepConnected(ctx context.Context, relay *paddyclient.Relay, logger *slog.Logger) {
	backoff := time.Second
	for ctx.Err() == nil {
		if err := relay.Connect(ctx); err != nil {
			logger.Warn("relay connect failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		logger.Info("relay connected")
		backoff = time.Second

		select {
		case <-ctx.Done():
			return
		case <-relay.Done():
			logger.Warn("relay connection lost")
		}
	}
}

func render(w io.Writer, prices []paddyclient.Price) {
	rows := make([]paddyclient.Price, len(prices))
	copy(rows, prices)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RiceVariety != rows[j].RiceVariety {
			return rows[i].RiceVariety < rows[j].RiceVariety
		}
		return rows[i].PricePerKg < rows[j].PricePerKg
	})

	fmt.Fprintf(w, "\n%s  %d prices\n", time.Now().Format("15:04:05"), len(rows))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIETY\tMILL\tDISTRICT\tPRICE/KG\tUPDATED")
	for _, p := range rows {
		mill := p.Mill.ID
		if p.Mill.Summary != nil {
			mill = p.Mill.Summary.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
			p.RiceVariety, mill, p.District, p.PricePerKg, p.UpdateTimestamp.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}
