package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/akashicode/pdfworker/internal/display"
	"github.com/akashicode/pdfworker/internal/engine"
	"github.com/akashicode/pdfworker/internal/reader"
	"github.com/akashicode/pdfworker/internal/resource"
	"github.com/akashicode/pdfworker/internal/server"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	extractPassword string
	fulltextFormat  string
	recognizeFormat string
)

var fulltextCmd = &cobra.Command{
	Use:   "fulltext PATH...",
	Short: "Print the reading-order text of PDF files",
	Long: `Extracts the text of each PDF file (or every PDF in a directory) in reading
order. Pages are separated by two newlines and a form feed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFulltext,
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize PATH...",
	Short: "Print per-word layout features of PDF files",
	Long: `Exports the layout features of the first pages of each PDF file: page size,
and per word its box, font size, baseline, style flags, font index and text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

func init() {
	for _, c := range []*cobra.Command{fulltextCmd, recognizeCmd} {
		c.Flags().StringVarP(&extractPassword, "password", "p", "", "document password")
	}
	fulltextCmd.Flags().StringVarP(&fulltextFormat, "format", "f", formatText, "output format: text, json or yaml")
	recognizeCmd.Flags().StringVarP(&recognizeFormat, "format", "f", formatJSON, "output format: json or yaml")

	fulltextCmd.Flags().Int("max-pages", 0, "extract at most this many pages (0 for all)")
	_ = viper.BindPFlag("fulltext.max_pages", fulltextCmd.Flags().Lookup("max-pages"))

	rootCmd.AddCommand(fulltextCmd)
	rootCmd.AddCommand(recognizeCmd)
}

// fileResult pairs a file with its extraction result.
type fileResult struct {
	File   string `json:"file" yaml:"file"`
	Result any    `json:"result" yaml:"result"`
}

func runFulltext(cmd *cobra.Command, args []string) error {
	if err := checkFormat(fulltextFormat, formatText, formatJSON, formatYAML); err != nil {
		return err
	}
	files, err := loadFiles(args)
	if err != nil {
		return err
	}
	d, cache, err := newDispatcher()
	if err != nil {
		return err
	}

	var results []fileResult
	for i, f := range files {
		display.Step(i+1, len(files), "Extracting "+f.Name)
		res, err := d.GetFulltext(cmd.Context(), cache, f.Data, extractPassword, appCfg.Fulltext.MaxPages)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		display.StepResult("pages", fmt.Sprintf("%d of %d", res.ExtractedPages, res.TotalPages))

		if fulltextFormat == formatText {
			if _, err := io.WriteString(cmd.OutOrStdout(), res.Text); err != nil {
				return err
			}
			continue
		}
		results = append(results, fileResult{File: f.Path, Result: res})
	}
	if fulltextFormat == formatText {
		return nil
	}
	return writeResults(cmd.OutOrStdout(), fulltextFormat, results)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	if err := checkFormat(recognizeFormat, formatJSON, formatYAML); err != nil {
		return err
	}
	files, err := loadFiles(args)
	if err != nil {
		return err
	}
	d, cache, err := newDispatcher()
	if err != nil {
		return err
	}

	var results []fileResult
	for i, f := range files {
		display.Step(i+1, len(files), "Recognizing "+f.Name)
		res, err := d.GetRecognizerData(cmd.Context(), cache, f.Data, extractPassword)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		display.StepResult("pages", fmt.Sprintf("%d of %d", len(res.Pages), res.TotalPages))
		results = append(results, fileResult{File: f.Path, Result: res})
	}
	return writeResults(cmd.OutOrStdout(), recognizeFormat, results)
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want %s)", format, strings.Join(allowed, ", "))
}

func loadFiles(paths []string) ([]reader.File, error) {
	var files []reader.File
	for _, p := range paths {
		fs, err := reader.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		files = append(files, fs...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", strings.Join(paths, ", "))
	}
	return files, nil
}

// newDispatcher runs operations in-process with resources read from the
// configured directories.
func newDispatcher() (*server.Dispatcher, *resource.Cache, error) {
	cache, err := resource.NewCache(localFetcher())
	if err != nil {
		return nil, nil, fmt.Errorf("create resource cache: %w", err)
	}
	return &server.Dispatcher{Engine: engine.NewPDF()}, cache, nil
}

// writeResults prints a single result bare, several as a list.
func writeResults(w io.Writer, format string, results []fileResult) error {
	var v any = results
	if len(results) == 1 {
		v = results[0].Result
	}

	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}
