package arbor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Project directory layout, relative to the project root.
const (
	AssetsDir        = "assets"
	ScenesDir        = "assets/scenes"
	ScriptsDir       = "assets/scripts"
	ImagesDir        = "assets/images"
	ShadersDir       = "assets/shaders"
	AudioDir         = "assets/audio"
	ProjectFileName  = "project.yaml"
	SceneFileSuffix  = ".scene.json"
	projectDirPerm   = 0o755
	projectFilePerm  = 0o644
	defaultSceneName = "Main"
)

var projectDirs = []string{AssetsDir, ScenesDir, ScriptsDir, ImagesDir, ShadersDir, AudioDir}

// ErrSceneExists is returned by AddScene for a name the project already has.
var ErrSceneExists = errors.New("arbor: scene already exists")

// Project is the descriptor stored in project.yaml at the project root.
type Project struct {
	ID     uuid.UUID `yaml:"id"`
	Name   string    `yaml:"name"`
	Root   string    `yaml:"root"`
	Scenes []string  `yaml:"scenes"`
}

// CreateProject lays out a new project under root and writes its descriptor
// with one empty scene named "Main".
func CreateProject(root, name string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("create project %s: %w", root, err)
	}
	for _, d := range projectDirs {
		if err := os.MkdirAll(filepath.Join(abs, filepath.FromSlash(d)), projectDirPerm); err != nil {
			return nil, fmt.Errorf("create project %s: %w", root, err)
		}
	}
	p := &Project{ID: uuid.New(), Name: name, Root: abs}
	if err := p.AddScene(defaultSceneName); err != nil {
		return nil, fmt.Errorf("create project %s: %w", root, err)
	}
	return p, nil
}

// OpenProject reads the descriptor under root. Root in the returned project
// is where it was opened from, not what the file says, so moved projects
// still resolve their paths.
func OpenProject(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("open project %s: %w", root, err)
	}
	data, err := os.ReadFile(filepath.Join(abs, ProjectFileName))
	if err != nil {
		return nil, fmt.Errorf("open project %s: %w", root, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("open project %s: %w", root, err)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Root = abs
	return &p, nil
}

// Save writes the descriptor.
func (p *Project) Save() error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.Name, err)
	}
	if err := os.WriteFile(filepath.Join(p.Root, ProjectFileName), data, projectFilePerm); err != nil {
		return fmt.Errorf("save project %s: %w", p.Name, err)
	}
	return nil
}

// AddScene declares a scene, writes an empty scene file for it and saves
// the descriptor.
func (p *Project) AddScene(name string) error {
	if name == "" {
		return fmt.Errorf("add scene: empty name")
	}
	if slices.Contains(p.Scenes, name) {
		return fmt.Errorf("add scene %s: %w", name, ErrSceneExists)
	}
	path := p.ScenePath(name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("add scene %s: %w", name, err)
		}
		werr := WriteScene(f, &SceneFile{Version: SceneFormatVersion, Objects: []SceneObject{}})
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("add scene %s: %w", name, werr)
		}
	}
	p.Scenes = append(p.Scenes, name)
	return p.Save()
}

// ScenePath returns the file a scene is stored in.
func (p *Project) ScenePath(name string) string {
	return filepath.Join(p.Root, filepath.FromSlash(ScenesDir), name+SceneFileSuffix)
}

// Path joins a project-relative slash path onto the root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// AssetRoot is the directory texture paths in scene files are relative to.
func (p *Project) AssetRoot() string { return p.Path(AssetsDir) }

// ScriptRoot is the directory script names resolve under.
func (p *Project) ScriptRoot() string { return p.Path(ScriptsDir) }
