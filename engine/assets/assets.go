package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/rendergraph/engine/assets/loaders"
	"github.com/spaghettifunk/rendergraph/engine/core"
)

var ErrClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
	data       []byte
}

// AssetManager indexes the shader tree, caches loaded SPIR-V and watches the
// tree for changes. Changed paths are published on Changes.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
	changes  chan string
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		changes:  make(chan string, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	am.registerLoader(AssetTypeShader, &loaders.SPIRVLoader{})
	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	am.mutex.Lock()
	am.started = true
	am.mutex.Unlock()
	go am.start()
	return nil
}

// Changes delivers the path of every indexed file that was written, created
// or removed. Slow readers miss notifications rather than block the watcher.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	started := am.started
	am.mutex.Unlock()
	if !started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return ErrClosed
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShader returns the SPIR-V at path, from cache when the file has not
// changed since it was last loaded.
func (am *AssetManager) LoadShader(path string) ([]byte, error) {
	path = filepath.Clean(path)

	am.mutex.RLock()
	asset, exists := am.assets[path]
	am.mutex.RUnlock()
	if exists && asset.data != nil {
		return asset.data, nil
	}

	assetType := determineAssetType(path)
	loader, ok := am.loaders[assetType]
	if !ok || assetType != AssetTypeShader {
		return nil, fmt.Errorf("no loader registered for %s", path)
	}
	data, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
		data:       data,
	}
	am.mutex.Unlock()
	core.LogDebug("loaded shader %s (%d bytes)", path, len(data))
	return data, nil
}

// IsShader reports whether path holds compiled SPIR-V.
func IsShader(path string) bool {
	return determineAssetType(path) == AssetTypeShader
}

func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[filepath.Clean(path)]
	return a, ok
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
						core.LogWarn("watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) {
					am.notify(e.Name)
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if am.removeAsset(e.Name) {
					am.notify(e.Name)
				}
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

func (am *AssetManager) notify(path string) {
	select {
	case am.changes <- filepath.Clean(path):
	default:
		core.LogWarn("asset change for %s dropped", path)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found.
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

// handleFileEvent indexes path and drops any cached contents. It reports
// whether the path is a known asset type.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return false
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) bool {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	_, ok := am.assets[path]
	delete(am.assets, path)
	return ok
}

func ext(path string) string {
	return filepath.Ext(path)
}
