package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LineSpacing selects the setspace directive emitted into the preamble.
type LineSpacing string

const (
	SpacingSingle  LineSpacing = "single"
	SpacingOneHalf LineSpacing = "onehalf"
	SpacingDouble  LineSpacing = "double"
)

// ConversionOptions is the immutable configuration consumed by both
// transcoders. A zero value is not usable; start from Default().
type ConversionOptions struct {
	DocumentClass string      `mapstructure:"document_class" validate:"required"`
	FontSize      string      `mapstructure:"font_size" validate:"required,oneof=10pt 11pt 12pt"`
	LineSpacing   LineSpacing `mapstructure:"line_spacing" validate:"required,oneof=single onehalf double"`
	PageMargins   string      `mapstructure:"page_margins" validate:"required"`

	UnicodeSupport      bool `mapstructure:"unicode_support"`
	PreserveImages      bool `mapstructure:"preserve_images"`
	OptimizeImages      bool `mapstructure:"optimize_images"`
	ExtractBibliography bool `mapstructure:"extract_bibliography"`
	CleanTempFiles      bool `mapstructure:"clean_temp_files"`

	BibliographyStyle string   `mapstructure:"bibliography_style"`
	CustomPackages    []string `mapstructure:"custom_packages"`
	OutputEncoding    string   `mapstructure:"output_encoding" validate:"required"`

	IncludePreamble    bool `mapstructure:"include_preamble"`
	StandaloneDocument bool `mapstructure:"standalone_document"`

	Verbose bool `mapstructure:"verbose"`
}

// Default returns the options used when no config file overrides them.
func Default() ConversionOptions {
	return ConversionOptions{
		DocumentClass:       "article",
		FontSize:            "12pt",
		LineSpacing:         SpacingSingle,
		PageMargins:         "margin=1in",
		UnicodeSupport:      true,
		PreserveImages:      true,
		OptimizeImages:      false,
		ExtractBibliography: false,
		CleanTempFiles:      true,
		BibliographyStyle:   "plain",
		OutputEncoding:      "utf-8",
		IncludePreamble:     true,
		StandaloneDocument:  true,
	}
}

var validate = validator.New()

// Validate checks the options before a conversion starts. Validation errors
// here are configuration mistakes, not conversion failures.
func (o ConversionOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid conversion options: %w", err)
	}
	return nil
}

// Load reads options from a YAML config file, layered over Default().
// An empty path searches the usual locations; a missing file is not an
// error and just yields the defaults.
func Load(configPath string) (ConversionOptions, error) {
	opts := Default()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".doctex")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return opts, nil
		}
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("failed to parse config file: %w", err)
	}

	return opts, nil
}
