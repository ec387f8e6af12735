// Package converter resolves the conversion direction for an artifact and
// orchestrates the matching transcoder. It holds no state between calls;
// each conversion builds fresh encoder/decoder instances.
package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/latex"
	"github.com/nerdneilsfield/go-doctex/internal/textenc"
	"github.com/nerdneilsfield/go-doctex/internal/wordml"
)

// Direction is which of the two transcodings applies.
type Direction int

const (
	DirectionUnknown Direction = iota
	ToLaTeX                    // .docx -> .tex
	ToDOCX                     // .tex/.latex -> .docx
)

func (d Direction) String() string {
	switch d {
	case ToLaTeX:
		return "to-latex"
	case ToDOCX:
		return "to-docx"
	default:
		return "unknown"
	}
}

// ParseDirection reads a --direction flag value. Empty means infer.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionUnknown, nil
	case "to-latex", "tolatex", "latex", "tex":
		return ToLaTeX, nil
	case "to-docx", "todocx", "docx", "word":
		return ToDOCX, nil
	default:
		return DirectionUnknown, fmt.Errorf("unknown direction %q (use to-latex or to-docx)", s)
	}
}

// InferDirection resolves the direction from the input extension alone.
func InferDirection(path string) (Direction, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "docx":
		return ToLaTeX, nil
	case "tex", "latex":
		return ToDOCX, nil
	default:
		return DirectionUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("extension %q is not convertible", ext),
		}
	}
}

// Converter dispatches conversions. It carries only immutable options and
// a logger, so one Converter may serve concurrent call sites as long as
// their output paths do not collide.
type Converter struct {
	opts   config.ConversionOptions
	logger *zap.Logger
}

// New validates the options and builds a converter.
func New(opts config.ConversionOptions, logger *zap.Logger) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, logger: logger}, nil
}

// Convert transcodes one artifact and returns the resolved output path.
// forced overrides direction inference; DirectionUnknown means infer. An
// empty outputPath derives one by substituting the extension.
func (c *Converter) Convert(inputPath, outputPath string, forced Direction) (string, error) {
	if info, err := os.Stat(inputPath); err != nil || info.IsDir() {
		return "", &MissingInputError{Path: inputPath}
	}

	direction := forced
	if direction == DirectionUnknown {
		var err error
		if direction, err = InferDirection(inputPath); err != nil {
			return "", err
		}
	}

	// A forced direction can contradict what the file actually is; fail
	// fast before touching the output location.
	if err := checkInputMatches(inputPath, direction); err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = derivedOutputPath(inputPath, direction)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &WriteError{Path: dir, Err: err}
		}
	}

	c.logger.Info("converting",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.String("direction", direction.String()))

	var err error
	switch direction {
	case ToLaTeX:
		err = c.encodeToLaTeX(inputPath, outputPath)
	case ToDOCX:
		err = c.decodeToDOCX(inputPath, outputPath)
	default:
		err = &UnsupportedFormatError{Path: inputPath, Reason: "direction could not be resolved"}
	}
	if err != nil {
		return "", err
	}

	return outputPath, nil
}

func checkInputMatches(path string, direction Direction) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch direction {
	case ToLaTeX:
		if ext != "docx" {
			return &UnsupportedFormatError{Path: path, Reason: "producing LaTeX requires a .docx input"}
		}
	case ToDOCX:
		if ext != "tex" && ext != "latex" {
			return &UnsupportedFormatError{Path: path, Reason: "producing DOCX requires a .tex or .latex input"}
		}
	}
	return nil
}

func derivedOutputPath(inputPath string, direction Direction) string {
	ext := ".tex"
	if direction == ToDOCX {
		ext = ".docx"
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ext
}

// encodeToLaTeX runs the docx -> LaTeX direction.
func (c *Converter) encodeToLaTeX(inputPath, outputPath string) error {
	doc, err := wordml.Open(inputPath)
	if err != nil {
		return &ConversionError{Path: inputPath, Err: err}
	}

	enc := latex.NewEncoder(c.opts, c.logger)
	bibName := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	text := enc.Encode(doc, bibName)

	data, err := textenc.Encode(text, c.opts.OutputEncoding)
	if err != nil {
		return &ConversionError{Path: inputPath, Err: err}
	}

	if err := atomicWrite(outputPath, data); err != nil {
		return err
	}

	if c.opts.ExtractBibliography {
		latex.WriteBibliography(outputPath, enc.Bibliography(), c.opts.OutputEncoding, c.logger)
	}

	return nil
}

// decodeToDOCX runs the LaTeX -> docx direction.
func (c *Converter) decodeToDOCX(inputPath, outputPath string) error {
	source, err := textenc.ReadFile(inputPath, c.opts.OutputEncoding)
	if err != nil {
		return &ConversionError{Path: inputPath, Err: err}
	}

	dec := latex.NewDecoder(c.opts, c.logger)
	if c.opts.CleanTempFiles {
		defer dec.Cleanup()
	}

	doc, err := dec.Decode(source, filepath.Dir(inputPath))
	if err != nil {
		return &ConversionError{Path: inputPath, Err: err}
	}

	// Save through a temporary sibling so a failed save never leaves a
	// half-written artifact behind.
	tmp := outputPath + ".tmp"
	if err := doc.Save(tmp); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outputPath, Err: err}
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: outputPath, Err: err}
	}

	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// BatchResult is one position-aligned batch outcome. A failed item keeps
// its error and an empty Output instead of aborting the remaining items.
type BatchResult struct {
	Input  string
	Output string
	Err    error
}

// Batch converts files strictly sequentially. With a non-empty outDir all
// outputs land there under the input's base name.
func (c *Converter) Batch(files []string, outDir string) []BatchResult {
	results := make([]BatchResult, 0, len(files))

	for _, file := range files {
		target := ""
		if outDir != "" {
			if direction, err := InferDirection(file); err == nil {
				target = filepath.Join(outDir, filepath.Base(derivedOutputPath(file, direction)))
			}
		}

		output, err := c.Convert(file, target, DirectionUnknown)
		if err != nil {
			c.logger.Warn("skipping file",
				zap.String("input", file), zap.Error(err))
			results = append(results, BatchResult{Input: file, Err: err})
			continue
		}
		results = append(results, BatchResult{Input: file, Output: output})
	}

	return results
}
