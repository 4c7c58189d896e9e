/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"designcanvas/internal/assets"
	"designcanvas/internal/backend"
	"designcanvas/internal/canvas"
	"designcanvas/internal/codec"
	"designcanvas/internal/config"
	"designcanvas/internal/export"
	applog "designcanvas/internal/log"
	"designcanvas/internal/product"
	"designcanvas/internal/storage"
	"designcanvas/internal/textlayout"
	"designcanvas/internal/version"
)

var (
	// Global flags
	configPath string
	dataRoot   string
	assetsDir  string
	logLevel   string

	cfg        = config.Defaults()
	pgPassword string
	fonts      textlayout.Provider
)

var rootCmd = &cobra.Command{
	Use:   "designcanvas",
	Short: "Constrained product design canvas",
	Long: `Edit product designs whose objects are kept inside the print zone.

Examples:
  designcanvas product validate tee.yaml
  designcanvas design run card.dzs --product tee.yaml --out card.json
  designcanvas design render card.json --product tee.yaml --out card.png --guides
  designcanvas drafts list --product tee-classic`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: per-user config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "root", ".", "data directory holding .dzc/ (drafts, snapshots, autosaves)")
	rootCmd.PersistentFlags().StringVar(&assetsDir, "assets", "assets", "image library directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level")
	rootCmd.SetVersionTemplate("{{.Name}} " + version.String() + "\n")
}

// setup loads configuration and initializes logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
		if err == nil && cfg.Storage.Driver == config.DriverPostgres {
			pgPassword, err = config.PostgresPassword()
		}
	} else {
		cfg, pgPassword, err = config.Load()
	}
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	applog.Init(cfg.Logging.Options())
	applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.CommandPath()), slog.String("root", dataRoot))
	return nil
}

func dataDir() string { return filepath.Join(dataRoot, storage.DataDirName) }

func library() *assets.Library { return assets.NewLibrary(assetsDir) }

// fontProvider resolves text fonts for measuring and rendering: the bundled
// Go fonts plus editor.fonts_dir. It is built once per process.
func fontProvider() (textlayout.Provider, error) {
	if fonts != nil {
		return fonts, nil
	}
	p, err := textlayout.NewOTProvider(cfg.Editor.FontsDir)
	if err != nil {
		return nil, err
	}
	fonts = p
	return fonts, nil
}

// newRenderer returns a thumbnail renderer sharing the editor's fonts.
func newRenderer(opts export.RenderOptions) (*export.Renderer, error) {
	p, err := fontProvider()
	if err != nil {
		return nil, err
	}
	r := export.NewRenderer(library(), opts)
	r.Provider = p
	return r, nil
}

// newEditor starts an editor on def configured from the editor section.
func newEditor(def *product.Definition) (*canvas.Editor, error) {
	p, err := fontProvider()
	if err != nil {
		return nil, err
	}
	if def == nil || len(def.Views) == 0 {
		return nil, fmt.Errorf("%w: no views", product.ErrInvalidProduct)
	}
	ectx := canvas.NewEditorContext(def.Views[0].Canvas())
	ectx.Measurer = textlayout.NewMeasurer(p)
	opts := canvas.Options{
		History: canvas.HistoryOptions{
			MaxDepth: cfg.Editor.HistoryDepth,
			Debounce: cfg.Editor.Debounce(),
		},
		EnforceMaxLayers: cfg.Editor.EnforceMaxLayers,
	}
	return canvas.NewEditor(ectx, def, opts)
}

func loadProduct(path string) (*product.Definition, error) {
	def, err := product.Load(path)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// openLocal opens the SQLite store, which also keeps history snapshots.
func openLocal(ctx context.Context) (*storage.Store, error) {
	return storage.Open(ctx, cfg.Storage.SQLiteDatabase(storage.DBPath(dataRoot)))
}

// openDrafts opens the configured draft store.
func openDrafts(ctx context.Context) (codec.DraftStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.Storage.PostgresURL(pgPassword)
		if err != nil {
			return nil, nil, err
		}
		st, err := backend.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.DriverSQLite:
		st, err := openLocal(ctx)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
