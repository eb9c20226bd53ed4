// Command epcisconvert is a thin CLI wrapper around the converter
// package: convert one input file into a separate output file, or watch
// a directory and convert every new file it sees.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/openepcis/openepcis-document-converter-sub002/configs"
	"github.com/openepcis/openepcis-document-converter-sub002/converter"
	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/logging"
)

func main() {
	var (
		inFile     = flag.String("in", "", "input file (required unless -watch is set)")
		outFile    = flag.String("out", "", "output file (required unless -watch is set)")
		watchDir   = flag.String("watch", "", "watch this directory for new files instead of converting one file")
		outDir     = flag.String("out-dir", "", "output directory for -watch mode")
		fromFormat = flag.String("from-format", "", "source format: xml or json (used only with -from-version; omit both to auto-detect)")
		fromVer    = flag.String("from-version", "", "source schema version: 1.2 or 2.0 (omit to auto-detect)")
		toFormat   = flag.String("to-format", "json", "target format: xml or json")
		toVer      = flag.String("to-version", "2.0", "target schema version: 1.2 or 2.0")
		epcFormat  = flag.String("epc-format", "NoPreference", "EPC identifier format preference")
		cbvFormat  = flag.String("cbv-format", "NoPreference", "CBV identifier format preference")
		strict12   = flag.Bool("strict12", true, "strip (true) or demote into <extension> (false) 2.0-only elements when downconverting")
		validateIn = flag.Bool("validate", false, "run the advisory schema validator during conversion")
	)
	flag.Parse()

	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading configuration:", err)
		os.Exit(1)
	}

	if err := logging.Init(logging.Options{
		GCPProjectID: cfg.GCPProjectID,
		LogName:      cfg.CloudRunService,
		Development:  cfg.LogDevelopment,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "initializing logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()

	opts := converter.Options{
		To: converter.Target{
			Format:  epcis.Format(*toFormat),
			Version: epcis.Version(*toVer),
		},
		IdentifierFormat: epcis.FormatPreference{
			EpcFormat: epcis.IdentifierFormat(*epcFormat),
			CbvFormat: epcis.IdentifierFormat(*cbvFormat),
		},
		Strict12:    *strict12,
		Concurrency: cfg.WorkerPoolSize,
		Validate:    *validateIn,
	}
	if *fromVer != "" {
		opts.From = converter.Target{
			Format:  epcis.Format(*fromFormat),
			Version: epcis.Version(*fromVer),
		}
	}

	if *watchDir != "" {
		if *outDir == "" {
			fmt.Fprintln(os.Stderr, "-out-dir is required when -watch is set")
			os.Exit(1)
		}
		runWatch(cfg, *watchDir, *outDir, opts)
		return
	}

	if *inFile == "" || *outFile == "" {
		fmt.Fprintln(os.Stderr, "-in and -out are required unless -watch is set")
		flag.Usage()
		os.Exit(1)
	}

	if err := convertFile(context.Background(), *inFile, *outFile, opts); err != nil {
		logging.Error("conversion failed", zap.String("in", *inFile), zap.Error(err))
		os.Exit(1)
	}
}

// convertFile converts one file end to end.
func convertFile(ctx context.Context, inPath, outPath string, opts converter.Options) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	return converter.Convert(ctx, in, out, opts)
}
