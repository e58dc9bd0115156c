package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/oberon/engine/assets/loaders"
	"github.com/spaghettifunk/oberon/engine/core"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	// Compiled SPIR-V module.
	AssetTypeShader
	// GLSL source the modules are compiled from.
	AssetTypeShaderSource
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeShaderSource:
		return "shader-source"
	}
	return "none"
}

type AssetInfo struct {
	// Path relative to the assets directory.
	Path       string
	Type       AssetType
	ModTime    time.Time
	LastLoaded time.Time
}

// AssetManager indexes the assets directory and keeps the index current by
// watching it.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating assets watcher")
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})

	if err := am.watchRecursive(root); err != nil {
		return errors.Wrapf(err, "indexing %s", root)
	}
	am.started = true
	go am.start()

	core.Logger().Info("assets indexed", "root", root, "count", am.Count())
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Count is the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Lookup returns the index entry for a path relative to the assets directory.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.ToSlash(path)]
	return info, ok
}

// Assets lists the index sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// LoadShader returns the SPIR-V words of shaders/<name>.spv.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	path := filepath.ToSlash(filepath.Join("shaders", name+".spv"))
	asset, err := am.resolve(path)
	if err != nil {
		return nil, err
	}

	if source, ok := am.Lookup(filepath.Join("shaders", name)); ok && source.ModTime.After(asset.ModTime) {
		core.LogWarn("Shader %s is older than its source, run `mage build:shaders`.", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, errors.Newf("no loader registered for asset type %s", asset.Type)
	}
	code, err := loader.Load(filepath.Join(am.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	core.LogDebug("Loaded shader %s (%d words).", path, len(code))
	return code, nil
}

// resolve finds path in the index. A file the watcher has not reported yet
// is indexed on the spot.
func (am *AssetManager) resolve(path string) (AssetInfo, error) {
	if asset, ok := am.Lookup(path); ok {
		return asset, nil
	}
	full := filepath.Join(am.root, filepath.FromSlash(path))
	if _, err := os.Stat(full); err != nil {
		return AssetInfo{}, errors.Mark(errors.Newf("asset not found: %s", path), core.ErrAssetNotFound)
	}
	am.handleFileEvent(full)
	if asset, ok := am.Lookup(path); ok {
		return asset, nil
	}
	return AssetInfo{}, errors.Mark(errors.Newf("unsupported asset: %s", path), core.ErrAssetNotFound)
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if !am.started {
		return am.fsnotify.Close()
	}
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("Unable to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds path and all directories under it to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path:    rel,
		Type:    assetType,
		ModTime: fi.ModTime(),
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, rel)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShader
	case ".vert", ".frag":
		return AssetTypeShaderSource
	default:
		return AssetTypeNone
	}
}
