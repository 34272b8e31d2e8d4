// Command arbor opens a project in the scene editor.
//
//	arbor -project ./mygame            open (or create) a project
//	arbor -project ./mygame -scene Lvl open a specific scene
//	arbor -project ./mygame -new Lvl2  add a scene and open it
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/internal/config"
	"github.com/phanxgames/arbor/internal/logging"
	"github.com/phanxgames/arbor/physics"
	"github.com/phanxgames/arbor/script"
)

func main() {
	projectDir := flag.String("project", ".", "project root directory")
	sceneName := flag.String("scene", "", "scene to open (defaults to editor.start_scene)")
	newScene := flag.String("new", "", "add a scene with this name and open it")
	configPath := flag.String("config", "", "config file (defaults to <project>/"+config.FileName+")")
	flag.Parse()

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(*projectDir, config.FileName)
	}
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)
	defer log.Sync()

	if err := run(log, cfg, *projectDir, *sceneName, *newScene); err != nil {
		log.Fatal("arbor exited", zap.Error(err))
	}
}

func run(log *zap.Logger, cfg *config.Config, root, sceneName, newScene string) error {
	project, err := openOrCreate(root)
	if err != nil {
		return err
	}
	log.Info("project opened",
		zap.String("name", project.Name),
		zap.String("id", project.ID.String()),
		zap.String("root", project.Root),
	)

	if newScene != "" {
		if err := project.AddScene(newScene); err != nil {
			return err
		}
		sceneName = newScene
	}
	if sceneName == "" {
		sceneName = cfg.Editor.StartScene
	}

	events := arbor.NewEventBus()
	events.Subscribe(func(ev arbor.Event) {
		if ev.Err != nil {
			log.Warn("engine event", zap.Stringer("kind", ev.Kind), zap.String("subject", ev.Subject), zap.Error(ev.Err))
		}
	})

	world := physics.New(physics.Config{
		Gravity:            mgl64.Vec2{cfg.Physics.GravityX, cfg.Physics.GravityY},
		TimeStep:           cfg.Physics.TimeStep,
		VelocityIterations: cfg.Physics.VelocityIterations,
		PositionIterations: cfg.Physics.PositionIterations,
		MaxSubSteps:        cfg.Physics.MaxSubSteps,
	}, log)

	assets := arbor.NewAssetRegistry(project.AssetRoot(), log, events)
	view := arbor.NewView(sceneName, arbor.ViewConfig{
		Logger: log,
		Events: events,
		Assets: assets,
		Renderer: arbor.RendererConfig{
			MaxBatchSprites: cfg.Render.MaxBatchSprites,
			TextureSlots:    cfg.Render.TextureSlots,
			Debug:           cfg.Render.Debug,
		},
		Physics:      world,
		Scripts:      script.NewLuaLoader(log),
		ScriptDir:    project.ScriptRoot(),
		HistoryLimit: cfg.Editor.HistoryLimit,
	})

	if err := assets.Preload(context.Background(), imageFiles(project.Path(arbor.ImagesDir), project.AssetRoot())); err != nil {
		return err
	}
	if err := view.LoadScene(project.ScenePath(sceneName)); err != nil {
		return err
	}

	bg := cfg.Window.Background
	return arbor.Run(view, arbor.RunConfig{
		Title:      fmt.Sprintf("%s - %s - %s", cfg.Window.Title, project.Name, sceneName),
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Resizable:  cfg.Window.Resizable,
		Background: arbor.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]},
		ShowStats:  cfg.Render.ShowStats,
		Editor:     cfg.Editor.Enabled,
	})
}

func openOrCreate(root string) (*arbor.Project, error) {
	p, err := arbor.OpenProject(root)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return arbor.CreateProject(root, filepath.Base(abs))
}

// imageFiles lists png and jpeg files under dir as paths relative to assetRoot.
func imageFiles(dir, assetRoot string) []string {
	var out []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
			if rel, err := filepath.Rel(assetRoot, path); err == nil {
				out = append(out, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	return out
}
