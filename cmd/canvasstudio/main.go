/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"canvasstudio/internal/assetpack"
	"canvasstudio/internal/config"
	"canvasstudio/internal/crash"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/export"
	"canvasstudio/internal/fontsvc"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/telemetry"
	"canvasstudio/internal/version"
)

func usage() {
	fmt.Println("Canvas Studio — design document tool")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  canvasstudio version|-v|--version          Show version")
	fmt.Println("  canvasstudio init <dir> <name>             Create a new project at <dir> with name <name>")
	fmt.Println("  canvasstudio open <dir>                    Open project at <dir> and print summary")
	fmt.Println("  canvasstudio save <dir>                    Save project at <dir> (creates backup)")
	fmt.Println("  canvasstudio export <dir> [format] [scale] Export all visible pages (png|jpeg|pdf|archive|json, or preset web|print|social)")
	fmt.Println("  canvasstudio pack <dir> <zip>              Bundle the project's assets folder into a zip pack")
	fmt.Println("  canvasstudio unpack <dir> <zip>            Install an asset pack into the project")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Canvas Studio — design document tool")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			l.Info("init project", slog.String("root", abs), slog.String("name", name))
			p := domain.NewProject(name, 1920, 1080, 96)
			h, err := storage.InitProject(abs, *p)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			telemetry.Event("project_init", nil)
			fmt.Println("Created project at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open project", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			fmt.Printf("Opened project: %s\n", h.Project.Name)
			fmt.Printf("Pages: %d\n", len(h.Project.Pages))
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("save project", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			h.Project.UpdatedAt = time.Now()
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			recordAutosave(l, h, cfg)
			fmt.Println("Saved project and created a backup of the previous document (if any).")
			return
		case "export":
			if len(args) < 3 {
				fmt.Println("export requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ph = h
			if err := runExport(h, cfg, args[3:]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "pack":
			if len(args) < 4 {
				fmt.Println("pack requires <dir> and <zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			if err := assetpack.ExportProjectAssets(abs, args[3]); err != nil {
				l.Error("pack failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Asset pack written to", args[3])
			return
		case "unpack":
			if len(args) < 4 {
				fmt.Println("unpack requires <dir> and <zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			n, err := assetpack.InstallPack(abs, args[3])
			if err != nil {
				l.Error("unpack failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Installed %d asset file(s).\n", n)
			return
		}
	}

	usage()
}

// recordAutosave keeps a rolling document snapshot in the project cache.
func recordAutosave(l *slog.Logger, ph *storage.ProjectHandle, cfg config.AppConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	doc, err := json.Marshal(ph.Project)
	if err != nil {
		l.Warn("autosave marshal failed", slog.Any("err", err))
		return
	}
	if err := storage.SaveAutosave(ctx, ph, doc, time.Now()); err != nil {
		l.Warn("autosave failed", slog.Any("err", err))
		return
	}
	if _, err := storage.PruneAutosaves(ctx, ph, cfg.General.AutosaveKeep); err != nil {
		l.Warn("autosave prune failed", slog.Any("err", err))
	}
}

func runExport(ph *storage.ProjectHandle, cfg config.AppConfig, rest []string) error {
	opts := export.Options{
		Format:    export.Format(cfg.Export.DefaultFormat),
		Scale:     cfg.Export.DefaultScale,
		Quality:   cfg.Export.JPEGQuality,
		Selection: export.SelectAll,
	}
	if len(rest) >= 1 {
		// first argument is either a preset name or a raw format
		if po, err := export.PresetOptions(export.PresetName(rest[0])); err == nil {
			if po.Quality == 0 {
				po.Quality = opts.Quality
			}
			opts = po
		} else {
			opts.Format = export.Format(rest[0])
		}
	}
	if len(rest) >= 2 {
		f, err := strconv.ParseFloat(rest[1], 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid scale %q", rest[1])
		}
		opts.Scale = f
	}

	sc := scene.NewSoftscene()
	fonts := fontsvc.New(100 * time.Millisecond)
	pipe := export.New(sc, fonts)

	opts.OutPath = export.ResolveOutPath(ph.Root, ph.Project.Name, "", opts.Format)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for pr := range pipe.Progress() {
			switch pr.Phase {
			case export.PhaseRendering:
				fmt.Printf("Rendering page %d/%d…\n", pr.Page, pr.Total)
			case export.PhaseComplete, export.PhaseError:
				return
			}
		}
	}()

	err := pipe.Run(context.Background(), &ph.Project, opts)
	<-done
	if err != nil {
		return err
	}
	telemetry.Event("export", map[string]any{"format": string(opts.Format)})
	fmt.Println("Exported to", opts.OutPath)
	return nil
}
