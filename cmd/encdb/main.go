package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oisee/encdb/pkg/conflict"
	"github.com/oisee/encdb/pkg/encoding"
	"github.com/oisee/encdb/pkg/isa"
	"github.com/oisee/encdb/pkg/result"
	"github.com/oisee/encdb/pkg/schema"
)

func main() {
	log := logrus.New()

	var logLevel, logFormat string
	rootCmd := &cobra.Command{
		Use:           "encdb",
		Short:         "Instruction encoding database: validate encodings and find conflicts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(log, logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	// validate command
	validateCmd := &cobra.Command{
		Use:   "validate [db.yaml]",
		Short: "Load a database and check every encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d instructions, %d extensions\n", args[0], db.Set.Len(), db.Catalog.Len())

			return checkFormats(db, log)
		},
	}

	// match command
	var xlen uint32

	matchCmd := &cobra.Command{
		Use:   "match [db.yaml] [instruction]",
		Short: "Show the match string and operands of an instruction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, f, err := loadFormat(args[0], args[1], xlen)
			if err != nil {
				return err
			}
			fmt.Printf("%s (RV%d)\n", in.Name, xlen)
			fmt.Printf("  match:     %s\n", f.MatchString())
			fmt.Printf("  definedBy: %s\n", in.DefinedBy)
			for _, op := range f.Operands {
				fmt.Printf("  %-10s %-14s %s\n", op.PrettyName(), op.Location, op.DecodeExpr())
			}
			return nil
		},
	}
	matchCmd.Flags().Uint32Var(&xlen, "xlen", 64, "XLEN (32 or 64)")

	// scan command
	var (
		scanCfg       conflict.Config
		output        string
		outFormat     string
		baseline      string
		writeBaseline string
	)

	scanCmd := &cobra.Command{
		Use:   "scan [db.yaml]",
		Short: "Find instructions with conflicting encodings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			d := conflict.NewDetector(db.Set, db.Oracle(), conflict.WithLogger(log))
			rep, err := d.Scan(context.Background(), scanCfg)
			if err != nil {
				return err
			}
			rep.Database = args[0]

			findings := rep.Findings
			if baseline != "" {
				b, err := result.LoadBaseline(baseline)
				if err != nil {
					return fmt.Errorf("loading baseline: %w", err)
				}
				findings = rep.NewSince(b)
			}

			if err := writeReport(rep, findings, output, outFormat); err != nil {
				return err
			}

			if writeBaseline != "" {
				if err := result.SaveBaseline(writeBaseline, result.BaselineOf(rep)); err != nil {
					return err
				}
				log.WithField("path", writeBaseline).Info("baseline written")
			}

			if baseline != "" && len(findings) > 0 {
				return fmt.Errorf("%d new conflicts since baseline", len(findings))
			}
			return nil
		},
	}
	scanCmd.Flags().Uint32Var(&scanCfg.Width, "xlen", 64, "XLEN to scan at (32 or 64)")
	scanCmd.Flags().IntVar(&scanCfg.NumWorkers, "workers", 0, "Number of workers (0 = NumCPU)")
	scanCmd.Flags().BoolVarP(&scanCfg.Verbose, "verbose", "v", false, "Verbose output")
	scanCmd.Flags().StringVar(&output, "output", "", "Write the report to a file instead of stdout")
	scanCmd.Flags().StringVarP(&outFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().StringVar(&baseline, "baseline", "", "Only report conflicts missing from this baseline")
	scanCmd.Flags().StringVar(&writeBaseline, "write-baseline", "", "Save the findings as a baseline file")

	// decode command
	decodeCmd := &cobra.Command{
		Use:   "decode [db.yaml] [word]",
		Short: "List the instructions an instruction word decodes as",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := parseWord(args[1])
			if err != nil {
				return fmt.Errorf("bad word %q: %w", args[1], err)
			}
			db, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			o := db.Oracle()
			n := 0
			for _, in := range db.Set.DefinedAt(xlen) {
				f, err := in.FormatFor(xlen, o)
				if err != nil {
					return err
				}
				if !f.Matches(word) {
					continue
				}
				n++
				fmt.Printf("%s %s\n", in.Name, operandValues(f, word))
			}
			if n == 0 {
				fmt.Printf("%#x does not decode at RV%d\n", word, xlen)
			}
			return nil
		},
	}
	decodeCmd.Flags().Uint32Var(&xlen, "xlen", 64, "XLEN (32 or 64)")

	// wavedrom command
	wavedromCmd := &cobra.Command{
		Use:   "wavedrom [db.yaml] [instruction]",
		Short: "Print a wavedrom register description of an instruction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, f, err := loadFormat(args[0], args[1], xlen)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(f.Wavedrom(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	wavedromCmd.Flags().Uint32Var(&xlen, "xlen", 64, "XLEN (32 or 64)")

	// dump command
	dumpCmd := &cobra.Command{
		Use:   "dump [db.yaml] [instruction]",
		Short: "Dump loaded instructions for debugging",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
			if len(args) == 2 {
				in, ok := db.Set.Lookup(args[1])
				if !ok {
					return fmt.Errorf("unknown instruction: %s", args[1])
				}
				cfg.Dump(in)
				return nil
			}
			cfg.Dump(db.Set.All())
			return nil
		},
	}

	rootCmd.AddCommand(validateCmd, matchCmd, scanCmd, decodeCmd, wavedromCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func configureLogger(log *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

// checkFormats resolves the format of every instruction at both XLENs and
// reports every instruction left without one.
func checkFormats(db *schema.Database, log logrus.FieldLogger) error {
	o := db.Oracle()
	var errs []error
	for _, w := range []uint32{32, 64} {
		for _, in := range db.Set.DefinedAt(w) {
			if _, err := in.FormatFor(w, o); err != nil {
				log.WithFields(logrus.Fields{"inst": in.Name, "xlen": w}).Error("no format applies")
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func loadFormat(path, name string, xlen uint32) (*isa.Instruction, *encoding.Format, error) {
	db, err := schema.Load(path)
	if err != nil {
		return nil, nil, err
	}
	in, ok := db.Set.Lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown instruction: %s", name)
	}
	f, err := in.FormatFor(xlen, db.Oracle())
	if err != nil {
		return nil, nil, err
	}
	return in, f, nil
}

func writeReport(rep *result.Report, findings []result.Finding, output, format string) error {
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		out := *rep
		out.Findings = findings
		if out.Findings == nil {
			out.Findings = []result.Finding{}
		}
		return result.WriteJSON(w, &out)
	case "table":
		if len(findings) == 0 {
			fmt.Fprintf(w, "No conflicts at RV%d (%d instructions checked)\n", rep.XLen, rep.Checked)
			return nil
		}
		result.WriteTable(w, findings)
		fmt.Fprintf(w, "%d conflicts at RV%d\n", len(findings), rep.XLen)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// parseWord accepts 0x, 0b and decimal instruction words.
func parseWord(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", ""))
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseUint(s, 0, 64)
}

func operandValues(f *encoding.Format, word uint64) string {
	parts := make([]string, 0, len(f.Operands))
	for _, op := range f.Operands {
		if op.SignExtend {
			parts = append(parts, fmt.Sprintf("%s=%d", op.Name, op.ExtractSigned(word)))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%d", op.Name, op.Extract(word)))
		}
	}
	return strings.Join(parts, " ")
}
