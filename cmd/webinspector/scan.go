package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"webInspector/internal/config"
	"webInspector/internal/output"
	"webInspector/internal/probe"
	"webInspector/internal/render"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [flags] <url>...",
		Short: "Inspect one or more URLs",
	}
	formatter := config.RegisterScanFlags(cmd.Flags())
	useGroupedHelp(cmd, formatter)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), formatter.Groups)
		if err != nil {
			return err
		}
		defer cfg.Close()

		if len(args) == 0 && cfg.InputFile == "" && !config.HasPipedData() {
			return cmd.Help()
		}

		urls, err := collectURLs(args, cfg.InputFile, os.Stdin)
		if err != nil {
			return err
		}
		cfg.Logger.Info("loaded URLs", zap.Int("count", len(urls)))

		var out io.Writer = os.Stdout
		if cfg.OutputFile != "" {
			file, err := os.Create(cfg.OutputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer file.Close()
			out = file
		}
		cards := !cfg.JSON && cfg.OutputFile == "" && term.IsTerminal(int(os.Stdout.Fd()))

		locator, closeLocator, err := newLocator(cfg)
		if err != nil {
			return err
		}
		defer closeLocator()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		inspector := probe.NewInspector(cfg, locator)
		return runScan(ctx, inspector, urls, out, cards, cfg.Logger)
	}
	return cmd
}

// runScan inspects urls in order and writes each report as it completes
func runScan(ctx context.Context, inspector *probe.Inspector, urls []string, out io.Writer, cards bool, logger *zap.Logger) error {
	successCount := 0
	errorCount := 0

	for report := range inspector.InspectAll(ctx, urls) {
		if report.Failed() {
			errorCount++
		} else {
			successCount++
		}
		if err := writeReport(out, report, cards); err != nil {
			return err
		}
	}

	logger.Info("scan completed",
		zap.Int("total", len(urls)),
		zap.Int("success", successCount),
		zap.Int("errors", errorCount),
	)
	return ctx.Err()
}

func writeReport(w io.Writer, report output.Report, cards bool) error {
	if cards {
		return render.Card(w, report)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// collectURLs takes the arguments, else the input file, else stdin
func collectURLs(args []string, inputFile string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		return readURLs(file)
	}
	return readURLs(stdin)
}

// readURLs reads URLs from the input reader, skipping comments and empty lines
func readURLs(reader io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URLs: %w", err)
	}
	return urls, nil
}
