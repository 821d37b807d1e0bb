// Package config loads optional JSON defaults for the merge CLI. Flags
// always win; the file fills in whatever the command line leaves unset.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MergeConfig holds the file-configurable defaults of a merge run.
// Pointer fields distinguish "omitted" from zero values, so partial
// configs are safe.
type MergeConfig struct {
	// Output is the combined grid path.
	Output *string `json:"output,omitempty"`

	// DBPath enables run history recording when set.
	DBPath *string `json:"db_path,omitempty"`

	// Export paths, empty disables each.
	ExportJSON *string `json:"export_json,omitempty"`
	ExportCSV  *string `json:"export_csv,omitempty"`

	// Report is the HTML report path, empty disables it.
	Report *string `json:"report,omitempty"`

	// Plot settings for the slice heatmap PNG.
	Plot      *string `json:"plot,omitempty"`
	PlotAxis  *string `json:"plot_axis,omitempty"`
	PlotIndex *int    `json:"plot_index,omitempty"`

	// Quiet suppresses per-file progress logging.
	Quiet *bool `json:"quiet,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// EmptyMergeConfig returns a MergeConfig with all fields set to nil.
// The Get* methods supply defaults for anything left unset.
func EmptyMergeConfig() *MergeConfig {
	return &MergeConfig{}
}

// LoadMergeConfig loads a MergeConfig from a JSON file. The file must
// have a .json extension and stay under the size cap.
func LoadMergeConfig(path string) (*MergeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMergeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *MergeConfig) Validate() error {
	if c.Output != nil && *c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}

	if c.PlotAxis != nil {
		switch *c.PlotAxis {
		case "x", "y", "z":
		default:
			return fmt.Errorf("plot_axis must be x, y or z, got %q", *c.PlotAxis)
		}
	}

	if c.PlotIndex != nil && *c.PlotIndex < 0 {
		return fmt.Errorf("plot_index must be non-negative, got %d", *c.PlotIndex)
	}

	return nil
}

// GetOutput returns the output path or the default.
func (c *MergeConfig) GetOutput() string {
	if c.Output == nil {
		return "merged.dx" // default
	}
	return *c.Output
}

// GetDBPath returns the history database path, empty when disabled.
func (c *MergeConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetExportJSON returns the JSON export path, empty when disabled.
func (c *MergeConfig) GetExportJSON() string {
	if c.ExportJSON == nil {
		return ""
	}
	return *c.ExportJSON
}

// GetExportCSV returns the CSV export path, empty when disabled.
func (c *MergeConfig) GetExportCSV() string {
	if c.ExportCSV == nil {
		return ""
	}
	return *c.ExportCSV
}

// GetReport returns the HTML report path, empty when disabled.
func (c *MergeConfig) GetReport() string {
	if c.Report == nil {
		return ""
	}
	return *c.Report
}

// GetPlot returns the heatmap PNG path, empty when disabled.
func (c *MergeConfig) GetPlot() string {
	if c.Plot == nil {
		return ""
	}
	return *c.Plot
}

// GetPlotAxis returns the slice axis or the default.
func (c *MergeConfig) GetPlotAxis() string {
	if c.PlotAxis == nil {
		return "z" // default
	}
	return *c.PlotAxis
}

// GetPlotIndex returns the slice index, -1 meaning the middle slice.
func (c *MergeConfig) GetPlotIndex() int {
	if c.PlotIndex == nil {
		return -1
	}
	return *c.PlotIndex
}

// GetQuiet returns whether progress logging is suppressed.
func (c *MergeConfig) GetQuiet() bool {
	if c.Quiet == nil {
		return false
	}
	return *c.Quiet
}
