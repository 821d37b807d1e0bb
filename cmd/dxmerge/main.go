// Package main provides the grid merge command. It reassembles a full
// OpenDX density map from overlapping sub-grid files, optionally
// exporting summaries, a slice plot and an HTML report, and recording
// the run in a history database.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/banshee-data/density.report/internal/config"
	"github.com/banshee-data/density.report/internal/dxgrid"
	"github.com/banshee-data/density.report/internal/fsutil"
	"github.com/banshee-data/density.report/internal/monitoring"
	"github.com/banshee-data/density.report/internal/render"
	"github.com/banshee-data/density.report/internal/storage/sqlite"
	"github.com/banshee-data/density.report/internal/version"
)

// Config holds configuration for one merge run.
type Config struct {
	Output     string
	ConfigPath string
	DBPath     string
	ExportJSON string
	ExportCSV  string
	Plot       string
	PlotAxis   string
	PlotIndex  int
	Report     string
	Quiet      bool

	ShowVersion bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one input grid file is required")
		flag.Usage()
		os.Exit(1)
	}

	if cfg.ConfigPath != "" {
		fileCfg, err := config.LoadMergeConfig(cfg.ConfigPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		applyFileDefaults(&cfg, fileCfg, set)
	}

	if cfg.Quiet {
		monitoring.SetLogger(nil)
	}

	merger := dxgrid.NewMerger(fsutil.OSFileSystem{})

	inputs, err := merger.ExpandInputs(flag.Args())
	if err != nil {
		log.Fatalf("Failed to resolve inputs: %v", err)
	}

	result, err := merger.MergeToFile(cfg.Output, inputs)
	if err != nil {
		log.Fatalf("Merge failed: %v", err)
	}

	if !cfg.Quiet {
		printSummary(cfg.Output, result)
	}

	if err := exportResults(cfg, result); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if cfg.Plot != "" {
		if err := writePlot(cfg, result); err != nil {
			log.Fatalf("Plot failed: %v", err)
		}
	}

	if cfg.Report != "" {
		if err := writeReport(cfg.Report, result); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	}

	if cfg.DBPath != "" {
		if err := recordRun(cfg, result); err != nil {
			log.Printf("Warning: history recording failed: %v", err)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Output, "o", "merged.dx", "Output path for the combined grid")
	flag.StringVar(&cfg.ConfigPath, "config", "", "JSON config file supplying defaults for unset flags")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database to record run history in (optional)")
	flag.StringVar(&cfg.ExportJSON, "export-json", "", "Write a JSON summary of the merge to this path")
	flag.StringVar(&cfg.ExportCSV, "export-csv", "", "Write per-file contributions as CSV to this path")
	flag.StringVar(&cfg.Plot, "plot", "", "Write a slice heatmap PNG to this path")
	flag.StringVar(&cfg.PlotAxis, "plot-axis", "z", "Axis to slice for the heatmap (x, y or z)")
	flag.IntVar(&cfg.PlotIndex, "plot-index", -1, "Plane index for the heatmap (-1 selects the middle plane)")
	flag.StringVar(&cfg.Report, "report", "", "Write an HTML report of the merge to this path")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "Suppress per-file progress logging")
	flag.BoolVar(&cfg.Quiet, "q", false, "Suppress per-file progress logging (alias for -quiet)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <grid files or glob>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge overlapping OpenDX density sub-grids into one combined grid\n\n")
		fmt.Fprintf(os.Stderr, "Each sub-grid carries a one-voxel halo shared with its neighbours:\n")
		fmt.Fprintf(os.Stderr, "  1. Parse each sub-grid and strip the halo\n")
		fmt.Fprintf(os.Stderr, "  2. Stitch the interior voxels into one map\n")
		fmt.Fprintf(os.Stderr, "  3. Derive the combined geometry and check it against the headers\n")
		fmt.Fprintf(os.Stderr, "  4. Write the combined grid in the same OpenDX layout\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -o merged.dx 'out/gist-*.dx'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o merged.dx sub-001.dx sub-002.dx sub-003.dx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -plot slice.png -report merge.html 'out/gist-*.dx'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db history.db -export-json merged.json 'out/gist-*.dx'\n", os.Args[0])
	}

	flag.Parse()
	return cfg
}

// applyFileDefaults fills in flags the command line left unset from the
// config file. set holds the names of flags given explicitly, which
// always win over file values.
func applyFileDefaults(cfg *Config, file *config.MergeConfig, set map[string]bool) {
	if !set["o"] {
		cfg.Output = file.GetOutput()
	}
	if !set["db"] {
		cfg.DBPath = file.GetDBPath()
	}
	if !set["export-json"] {
		cfg.ExportJSON = file.GetExportJSON()
	}
	if !set["export-csv"] {
		cfg.ExportCSV = file.GetExportCSV()
	}
	if !set["plot"] {
		cfg.Plot = file.GetPlot()
	}
	if !set["plot-axis"] {
		cfg.PlotAxis = file.GetPlotAxis()
	}
	if !set["plot-index"] {
		cfg.PlotIndex = file.GetPlotIndex()
	}
	if !set["report"] {
		cfg.Report = file.GetReport()
	}
	if !set["quiet"] && !set["q"] {
		cfg.Quiet = file.GetQuiet()
	}
}

func printSummary(output string, result *dxgrid.MergeResult) {
	h := result.Header
	fmt.Println("\n========== Grid Merge Summary ==========")
	fmt.Printf("Output: %s\n", output)
	fmt.Printf("Inputs: %d files\n", len(result.Files))
	fmt.Println()
	fmt.Printf("Grid: %d x %d x %d (%d points)\n", h.Counts.X, h.Counts.Y, h.Counts.Z, h.Counts.Total())
	fmt.Printf("Origin: (%.3f, %.3f, %.3f)\n", h.Origin.X, h.Origin.Y, h.Origin.Z)
	fmt.Printf("Spacing: %g A\n", h.Spacing)
	fmt.Println()
	fmt.Printf("Density: min=%.4f max=%.4f mean=%.4f stddev=%.4f\n",
		result.Stats.Min, result.Stats.Max, result.Stats.Mean, result.Stats.StdDev)
	fmt.Printf("Merge time: %d ms\n", result.Elapsed.Milliseconds())
	fmt.Println("========================================")
}

// mergeExport is the JSON document written by -export-json.
type mergeExport struct {
	Output    string               `json:"output"`
	Header    dxgrid.Header        `json:"header"`
	Stats     dxgrid.ValueStats    `json:"stats"`
	Files     []dxgrid.FileSummary `json:"files"`
	ElapsedMs int64                `json:"elapsed_ms"`
}

func exportResults(cfg Config, result *dxgrid.MergeResult) error {
	if cfg.ExportJSON != "" {
		doc := mergeExport{
			Output:    cfg.Output,
			Header:    result.Header,
			Stats:     result.Stats,
			Files:     result.Files,
			ElapsedMs: result.Elapsed.Milliseconds(),
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("JSON marshal: %w", err)
		}
		if err := os.WriteFile(cfg.ExportJSON, data, 0644); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Printf("JSON summary: %s\n", cfg.ExportJSON)
	}

	if cfg.ExportCSV != "" {
		if err := exportFilesCSV(cfg.ExportCSV, result.Files); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
		fmt.Printf("CSV contributions: %s\n", cfg.ExportCSV)
	}

	return nil
}

func exportFilesCSV(path string, files []dxgrid.FileSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"path", "nx", "ny", "nz",
		"origin_x", "origin_y", "origin_z",
		"spacing", "declared_points", "interior_voxels",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range files {
		h := s.Header
		row := []string{
			s.Path,
			strconv.Itoa(h.Counts.X),
			strconv.Itoa(h.Counts.Y),
			strconv.Itoa(h.Counts.Z),
			strconv.FormatFloat(h.Origin.X, 'f', 3, 64),
			strconv.FormatFloat(h.Origin.Y, 'f', 3, 64),
			strconv.FormatFloat(h.Origin.Z, 'f', 3, 64),
			strconv.FormatFloat(h.Spacing, 'f', 3, 64),
			strconv.Itoa(h.Points),
			strconv.Itoa(s.Interior),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func writePlot(cfg Config, result *dxgrid.MergeResult) error {
	axis, err := render.ParseAxis(cfg.PlotAxis)
	if err != nil {
		return err
	}
	p, err := render.SlicePlot(result.Header, result.Values, axis, cfg.PlotIndex)
	if err != nil {
		return err
	}
	if err := render.SavePNG(p, cfg.Plot); err != nil {
		return err
	}
	fmt.Printf("Slice plot: %s\n", cfg.Plot)
	return nil
}

func writeReport(path string, result *dxgrid.MergeResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := render.WriteReport(f, result); err != nil {
		return err
	}
	fmt.Printf("HTML report: %s\n", path)
	return nil
}

func recordRun(cfg Config, result *dxgrid.MergeResult) error {
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateUp(sqlite.Migrations()); err != nil {
		return err
	}

	store := sqlite.NewRunStore(db, nil)
	return store.Insert(runRecord(cfg.Output, result))
}

// runRecord flattens a merge result into its history row.
func runRecord(output string, result *dxgrid.MergeResult) *sqlite.MergeRun {
	h := result.Header
	return &sqlite.MergeRun{
		OutputPath: output,
		FileCount:  len(result.Files),
		NX:         h.Counts.X,
		NY:         h.Counts.Y,
		NZ:         h.Counts.Z,
		OriginX:    h.Origin.X,
		OriginY:    h.Origin.Y,
		OriginZ:    h.Origin.Z,
		Spacing:    h.Spacing,
		PointCount: h.Points,
		MinValue:   result.Stats.Min,
		MaxValue:   result.Stats.Max,
		MeanValue:  result.Stats.Mean,
		StdDev:     result.Stats.StdDev,
		DurationMs: result.Elapsed.Milliseconds(),
	}
}
