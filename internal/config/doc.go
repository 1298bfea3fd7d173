// Package config manages the nsd launcher configuration file.
//
// The file is YAML and carries the discovery engine options (port, intervals,
// scope, loopback, advertised services) plus launcher preferences such as the
// print interval and the status server address. Keys are decoded strictly:
// a key the launcher does not know is an error, the same way an unknown
// engine option is.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/nsd/config.yaml or $HOME/.config/nsd/config.yaml
//   - macOS: $HOME/.config/nsd/config.yaml
//   - Windows: %LOCALAPPDATA%\nsd\config.yaml
//
// # Usage Example
//
//	file, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := discovery.New()
//	if err := engine.Start(file.EngineConfig()); err != nil {
//	    log.Fatal(err)
//	}
//
// A missing file is not an error; Load returns the defaults.
//
// # Thread Safety
//
// Save is serialized by a package mutex and writes atomically through a
// temporary file and rename.
package config
