package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/engine"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [url...]",
		Short: "Import receipts from their NFC-e page URLs",
		Long: `Download each receipt page, read its items, merge repeated lines and
categorize everything. Items matching a learned pattern skip the model.

A receipt URL that was already imported is rejected unless --overwrite is
given. If categorization fails the receipt is kept and can be retried with
"ledger categorize".`,
		Example: `  ledger ingest --date 2024-05-31 'https://www.nfce.fazenda.sp.gov.br/...'
  ledger ingest --file may.txt`,
		RunE: runIngest,
	}

	cmd.Flags().String("date", "", "purchase date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Bool("overwrite", false, "replace receipts that were already imported")
	cmd.Flags().StringP("file", "f", "", "read URLs from a file, one per line (- for stdin)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dateArg, _ := cmd.Flags().GetString("date")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	file, _ := cmd.Flags().GetString("file")

	purchased, err := parseDate(dateArg, time.Now())
	if err != nil {
		return err
	}

	urls := append([]string(nil), args...)
	if file != "" {
		fromFile, err := readURLFile(cmd, file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return common.NewValidationError("no receipt URLs given")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, err := newPipeline(store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var (
		bar  *progressbar.ProgressBar
		mu   sync.Mutex
		done int
	)
	if len(urls) > 1 {
		bar = newIngestBar(cmd, len(urls))
		interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
		ctx = interrupts.HandleInterrupts(ctx, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return urls[done:]
		})
		defer interrupts.Stop()
	}

	var failed int
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}

		res, err := eng.Ingest(ctx, engine.IngestRequest{
			URL:          url,
			PurchaseDate: purchased,
			Overwrite:    overwrite,
		})
		if bar != nil {
			_ = bar.Clear()
		}

		fmt.Fprintln(out, cli.BoldStyle.Render(url))
		if res != nil && res.Receipt != nil {
			fmt.Fprint(out, cli.RenderIngest(res))
		}
		if err != nil {
			failed++
			fmt.Fprintln(out, cli.FormatError(common.UserMessage(err)))
			slog.Debug("Ingest failed", "url", url, "error", err)
		}

		mu.Lock()
		done = i + 1
		mu.Unlock()
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if err := ctx.Err(); err != nil {
		return common.NewUserError(fmt.Sprintf("ingest interrupted after %d of %d receipts", done, len(urls)), err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d receipts failed", failed, len(urls))
	}
	return nil
}

func readURLFile(cmd *cobra.Command, path string) ([]string, error) {
	if path == "-" {
		return cli.ReadURLs(cmd.Context(), cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer func() { _ = f.Close() }()
	return cli.ReadURLs(cmd.Context(), f)
}

func newIngestBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing receipts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}
