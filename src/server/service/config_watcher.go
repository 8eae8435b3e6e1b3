package service

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/apimgr/earthquakes/src/config"
)

// ConfigWatcher watches server.yml for changes and triggers reload
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	reloadFunc func(*config.Config) error
	stopChan   chan bool
}

// NewConfigWatcher creates a new config file watcher
func NewConfigWatcher(configPath string, reloadFunc func(*config.Config) error) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ConfigWatcher{
		watcher:    watcher,
		configPath: configPath,
		reloadFunc: reloadFunc,
		stopChan:   make(chan bool),
	}, nil
}

// Start begins watching the config file for changes
func (cw *ConfigWatcher) Start() error {
	// Watch the directory; editors replace files rather than writing in place
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return err
	}

	log.Printf("Watching for config file changes: %s", cw.configPath)

	go func() {
		// Debounce to avoid multiple reloads for rapid successive writes
		var debounceTimer *time.Timer
		debounceDuration := 500 * time.Millisecond

		for {
			select {
			case event, ok := <-cw.watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != filepath.Clean(cw.configPath) {
					continue
				}

				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					if debounceTimer != nil {
						debounceTimer.Stop()
					}

					debounceTimer = time.AfterFunc(debounceDuration, func() {
						log.Println("Config file changed, reloading...")

						newCfg, err := config.LoadConfig()
						if err != nil {
							log.Printf("Failed to load new config: %v", err)
							return
						}

						if err := cw.reloadFunc(newCfg); err != nil {
							log.Printf("Failed to apply new config: %v", err)
							return
						}

						log.Println("Configuration reloaded (no restart needed)")
					})
				}

			case err, ok := <-cw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config watcher error: %v", err)

			case <-cw.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop stops the config file watcher
func (cw *ConfigWatcher) Stop() error {
	close(cw.stopChan)
	return cw.watcher.Close()
}
