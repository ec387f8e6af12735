package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/converter"
	"github.com/nerdneilsfield/go-doctex/internal/logger"
)

var (
	cfgFile      string
	directionStr string
	outputPath   string
	outputDir    string
	debugMode    bool
	verboseMode  bool
	listFormats  bool

	// Option overrides layered on top of the config file.
	documentClass string
	fontSize      string
	lineSpacing   string
	pageMargins   string
	noUnicode     bool
	noImages      bool
	optimizeImgs  bool
	extractBib    bool
	bibStyle      string
	extraPackages []string
	encodingName  string
	noPreamble    bool
	fragmentOnly  bool
)

// NewRootCommand builds the doctex command.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doctex [flags] input [input...]",
		Short: "doctex converts between LaTeX and Word documents in both directions",
		Long: `doctex converts reports between a LaTeX subset and Word (.docx), in both
directions. The direction is inferred from the input extension (.docx
produces LaTeX, .tex/.latex produces a Word document) unless forced with
--direction. Multiple inputs are converted sequentially as a batch; a
failing item is skipped and reported without aborting the rest.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args: func(cmd *cobra.Command, args []string) error {
			if listFormats {
				return nil
			}
			if len(args) < 1 {
				return fmt.Errorf("requires at least 1 input file")
			}
			if len(args) > 1 && outputPath != "" {
				return fmt.Errorf("--output only applies to a single input; use --output-dir for batches")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFormats {
				fmt.Println("supported conversions:")
				fmt.Println("  .docx          -> .tex   (to-latex)")
				fmt.Println("  .tex, .latex   -> .docx  (to-docx)")
				return nil
			}

			opts, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &opts)

			// Verbose lowers the level to debug so per-block degradation
			// warnings come with their surrounding context.
			log := logger.New(debugMode || opts.Verbose)
			defer func() {
				_ = log.Sync()
			}()

			conv, err := converter.New(opts, log)
			if err != nil {
				return err
			}

			if len(args) > 1 {
				return runBatch(conv, args)
			}

			forced, err := converter.ParseDirection(directionStr)
			if err != nil {
				return err
			}

			out, err := conv.Convert(args[0], outputPath, forced)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.doctex.yaml, ~/.doctex.yaml)")
	flags.StringVarP(&directionStr, "direction", "d", "", "force direction: to-latex or to-docx")
	flags.StringVarP(&outputPath, "output", "o", "", "output file (single input only)")
	flags.StringVar(&outputDir, "output-dir", "", "output directory for batch conversion")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flags.BoolVarP(&verboseMode, "verbose", "v", false, "log every conversion step")
	flags.BoolVar(&listFormats, "list-formats", false, "list supported conversions and exit")

	flags.StringVar(&documentClass, "document-class", "", "LaTeX document class (article, report, thesis, ...)")
	flags.StringVar(&fontSize, "font-size", "", "font size: 10pt, 11pt or 12pt")
	flags.StringVar(&lineSpacing, "line-spacing", "", "line spacing: single, onehalf or double")
	flags.StringVar(&pageMargins, "margins", "", "geometry margin specification")
	flags.BoolVar(&noUnicode, "no-unicode", false, "omit unicode support packages from the preamble")
	flags.BoolVar(&noImages, "no-images", false, "omit image support from the preamble")
	flags.BoolVar(&optimizeImgs, "optimize-images", false, "downscale oversized images before embedding")
	flags.BoolVar(&extractBib, "extract-bib", false, "collect bibliography entries into a .bib sidecar")
	flags.StringVar(&bibStyle, "bib-style", "", "bibliography style name")
	flags.StringArrayVar(&extraPackages, "package", nil, "extra LaTeX package (repeatable)")
	flags.StringVar(&encodingName, "encoding", "", "output text encoding (utf-8, latin-1, ...)")
	flags.BoolVar(&noPreamble, "no-preamble", false, "emit the document body without a preamble")
	flags.BoolVar(&fragmentOnly, "fragment", false, "emit a LaTeX fragment without the document wrapper")

	return rootCmd
}

// applyFlagOverrides copies explicitly-set flags over the loaded options.
// Only flags the user changed win over the config file.
func applyFlagOverrides(cmd *cobra.Command, opts *config.ConversionOptions) {
	if documentClass != "" {
		opts.DocumentClass = documentClass
	}
	if fontSize != "" {
		opts.FontSize = fontSize
	}
	if lineSpacing != "" {
		opts.LineSpacing = config.LineSpacing(lineSpacing)
	}
	if pageMargins != "" {
		opts.PageMargins = pageMargins
	}
	if cmd.Flags().Changed("no-unicode") {
		opts.UnicodeSupport = !noUnicode
	}
	if cmd.Flags().Changed("no-images") {
		opts.PreserveImages = !noImages
	}
	if cmd.Flags().Changed("optimize-images") {
		opts.OptimizeImages = optimizeImgs
	}
	if cmd.Flags().Changed("extract-bib") {
		opts.ExtractBibliography = extractBib
	}
	if bibStyle != "" {
		opts.BibliographyStyle = bibStyle
	}
	if len(extraPackages) > 0 {
		opts.CustomPackages = append(opts.CustomPackages, extraPackages...)
	}
	if encodingName != "" {
		opts.OutputEncoding = encodingName
	}
	if cmd.Flags().Changed("no-preamble") {
		opts.IncludePreamble = !noPreamble
	}
	if cmd.Flags().Changed("fragment") {
		opts.StandaloneDocument = !fragmentOnly
	}
	if debugMode || verboseMode {
		opts.Verbose = true
	}
}

func runBatch(conv *converter.Converter, files []string) error {
	results := conv.Batch(files, outputDir)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", res.Input, res.Err)
			continue
		}
		fmt.Println(res.Output)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

// Execute is kept for callers embedding the CLI.
func Execute(version, commit, buildDate string) error {
	return NewRootCommand(version, commit, buildDate).Execute()
}
