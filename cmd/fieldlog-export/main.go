// Command fieldlog-export writes a company's CSV export or prints its
// monthly breakdown for a year.
//
//	fieldlog-export csv -company EMS [-out EMS.csv | -sinks]
//	fieldlog-export monthly -company ESS [-year 2025]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"fieldlog/internal/backend"
	"fieldlog/internal/cli"
	"fieldlog/internal/core"
	"fieldlog/internal/export"
	"fieldlog/internal/log"
	"fieldlog/internal/records"
	"fieldlog/internal/report"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentExport)

	ctx, stop := cli.SignalContext()
	defer stop()

	bcfg := backend.FromAppConfig(cfg)
	factory := backend.NewFactory(logger.Logger)
	store := cli.OpenStore(ctx, logger, factory, bcfg)

	sinkFor := func() (export.Sink, error) {
		sink, err := factory.CreateSink(ctx, bcfg)
		if err != nil {
			return nil, err
		}
		if sink == nil {
			return nil, errors.New("no export sink configured")
		}
		return sink, nil
	}

	err := run(ctx, os.Args[1:], store.Store, sinkFor, os.Stdout)
	if cerr := store.Cleanup.Close(); cerr != nil {
		logger.Error("Store close error", "error", cerr)
	}
	if err != nil {
		logger.Error("Export command failed", "error", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: fieldlog-export csv -company EMS [-out file | -sinks]")
	fmt.Fprintln(w, "       fieldlog-export monthly -company EMS [-year 2025]")
}

func run(ctx context.Context, args []string, lister records.Lister, sinkFor func() (export.Sink, error), stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return errors.New("missing command")
	}

	switch args[0] {
	case "csv":
		return runCSV(ctx, args[1:], lister, sinkFor, stdout)
	case "monthly":
		return runMonthly(ctx, args[1:], lister, stdout)
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runCSV(ctx context.Context, args []string, lister records.Lister, sinkFor func() (export.Sink, error), stdout io.Writer) error {
	fs := flag.NewFlagSet("csv", flag.ContinueOnError)
	fs.SetOutput(stdout)
	companyFlag := fs.String("company", "", "company id (EMS or ESS)")
	out := fs.String("out", "", "output file; - or empty writes to stdout")
	toSinks := fs.Bool("sinks", false, "write to the configured export sinks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	company, err := core.ParseCompany(*companyFlag)
	if err != nil {
		return err
	}

	if *toSinks {
		sink, err := sinkFor()
		if err != nil {
			return err
		}
		return export.NewExporter(lister, sink).ExportCompany(ctx, company)
	}

	list, err := lister.List(ctx, company)
	if err != nil {
		return fmt.Errorf("list %s: %w", company, err)
	}
	text := report.BuildCSV(list)

	if *out == "" || *out == "-" {
		return report.WriteCSVFile(stdout, text)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := report.WriteCSVFile(f, text); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	return f.Close()
}

func runMonthly(ctx context.Context, args []string, lister records.Lister, stdout io.Writer) error {
	fs := flag.NewFlagSet("monthly", flag.ContinueOnError)
	fs.SetOutput(stdout)
	companyFlag := fs.String("company", "", "company id (EMS or ESS)")
	year := fs.Int("year", core.Today().Year(), "calendar year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	company, err := core.ParseCompany(*companyFlag)
	if err != nil {
		return err
	}

	list, err := lister.List(ctx, company)
	if err != nil {
		return fmt.Errorf("list %s: %w", company, err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "month\t")
	for _, ti := range core.Types() {
		fmt.Fprintf(tw, "%s\t", ti.Short)
	}
	fmt.Fprintln(tw, "total\t")

	grand := 0
	for _, b := range report.MonthlyBreakdown(list, *year) {
		fmt.Fprintf(tw, "%s\t", b.Month)
		for _, ti := range core.Types() {
			fmt.Fprintf(tw, "%d\t", b.ByType[ti.Type])
		}
		fmt.Fprintf(tw, "%d\t\n", b.Total)
		grand += b.Total
	}
	fmt.Fprintf(tw, "%d\t", *year)
	for range core.Types() {
		fmt.Fprint(tw, "\t")
	}
	fmt.Fprintf(tw, "%d\t\n", grand)
	return tw.Flush()
}
