package arbor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Texture is an image a sprite can be drawn with. Textures are shared by
// pointer; two sprites use the same texture when they hold the same *Texture.
type Texture struct {
	ID     uint32
	Path   string // as referenced by scene files, relative to the asset root
	Width  int
	Height int
	Image  *ebiten.Image

	// Missing is set for placeholder textures whose file failed to load.
	// They draw as magenta.
	Missing bool
}

// magenta placeholder, created on first use. arbor is single-threaded.
var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// maxPreloadWorkers bounds concurrent image decodes in Preload.
const maxPreloadWorkers = 4

// AssetRegistry loads and caches textures by path. A path that fails to load
// is reported on the event bus once and resolves to a placeholder texture, so
// the engine keeps running with the sprite drawn in magenta.
type AssetRegistry struct {
	root     string
	textures map[string]*Texture
	nextID   uint32
	log      *zap.Logger
	events   *EventBus

	// decode and newImage are swapped out in tests.
	decode   func(path string) (image.Image, error)
	newImage func(img image.Image) *ebiten.Image
}

// NewAssetRegistry creates a registry resolving relative paths against root.
func NewAssetRegistry(root string, log *zap.Logger, events *EventBus) *AssetRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = NewEventBus()
	}
	return &AssetRegistry{
		root:     root,
		textures: make(map[string]*Texture),
		log:      log,
		events:   events,
		decode:   decodeImageFile,
		newImage: func(img image.Image) *ebiten.Image { return ebiten.NewImageFromImage(img) },
	}
}

// Texture returns the texture for path, loading it on first use.
func (a *AssetRegistry) Texture(path string) *Texture {
	key := filepath.ToSlash(filepath.Clean(path))
	if tex, ok := a.textures[key]; ok {
		return tex
	}
	img, err := a.decode(a.resolve(key))
	return a.store(key, img, err)
}

// Register adds an already-created image under path, replacing any previous
// texture for that path.
func (a *AssetRegistry) Register(path string, img *ebiten.Image) *Texture {
	key := filepath.ToSlash(filepath.Clean(path))
	a.nextID++
	tex := &Texture{ID: a.nextID, Path: key, Image: img}
	if img != nil {
		b := img.Bounds()
		tex.Width, tex.Height = b.Dx(), b.Dy()
	}
	a.textures[key] = tex
	return tex
}

// Preload decodes the given paths concurrently and registers the results on
// the calling goroutine. Decode failures are reported, not returned; only
// context cancellation fails Preload.
func (a *AssetRegistry) Preload(ctx context.Context, paths []string) error {
	type result struct {
		key string
		img image.Image
		err error
	}
	results := make([]result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPreloadWorkers)
	for i, p := range paths {
		key := filepath.ToSlash(filepath.Clean(p))
		results[i].key = key
		if _, ok := a.textures[key]; ok {
			continue
		}
		full := a.resolve(key)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := a.decode(full)
			results[i].img, results[i].err = img, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload textures: %w", err)
	}

	for _, r := range results {
		if _, ok := a.textures[r.key]; ok {
			continue
		}
		a.store(r.key, r.img, r.err)
	}
	return nil
}

// Len returns the number of cached textures, placeholders included.
func (a *AssetRegistry) Len() int {
	return len(a.textures)
}

func (a *AssetRegistry) store(key string, img image.Image, err error) *Texture {
	a.nextID++
	tex := &Texture{ID: a.nextID, Path: key}
	if err != nil {
		tex.Missing = true
		a.log.Warn("texture load failed", zap.String("path", key), zap.Error(err))
		a.events.Report(EventResourceLoadFailed, key, err)
	} else {
		b := img.Bounds()
		tex.Width, tex.Height = b.Dx(), b.Dy()
		tex.Image = a.newImage(img)
		a.log.Debug("texture loaded", zap.String("path", key), zap.Int("w", tex.Width), zap.Int("h", tex.Height))
	}
	a.textures[key] = tex
	return tex
}

func (a *AssetRegistry) resolve(key string) string {
	if a.root == "" || filepath.IsAbs(key) {
		return filepath.FromSlash(key)
	}
	return filepath.Join(a.root, filepath.FromSlash(key))
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return img, nil
}
