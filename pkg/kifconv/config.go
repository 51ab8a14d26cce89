package kifconv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const (
	DefaultInput  = "kifu.txt"
	DefaultOutput = "translated_kifs/converted_sfen.txt"
)

type Config struct {
	Engine  string            `json:"engine"`
	Millis  int               `json:"millis"`
	Input   string            `json:"input"`
	Output  string            `json:"output"`
	EvalDir string            `json:"eval_dir"`
	Hash    int               `json:"hash"`
	OwnBook bool              `json:"own_book"`
	Threads int               `json:"threads"`
	Options map[string]string `json:"options"`
}

// DefaultConfig returns the settings used when no config.json is present.
func DefaultConfig() Config {
	return Config{
		Input:   DefaultInput,
		Output:  DefaultOutput,
		EvalDir: "eval",
		Hash:    256,
	}
}

func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", cwd)
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EnginePath resolves a relative engine path against the config directory.
func (c Config) EnginePath(root string) (string, error) {
	if c.Engine == "" {
		return "", fmt.Errorf("engine path is required")
	}
	if filepath.IsAbs(c.Engine) {
		return c.Engine, nil
	}
	return filepath.Join(root, c.Engine), nil
}

// EngineOptions returns the setoption requests for the handshake. Named
// settings come first, then extra options sorted by name.
func (c Config) EngineOptions() []Option {
	var opts []Option
	if c.EvalDir != "" {
		opts = append(opts, Option{Name: "EvalDir", Value: c.EvalDir})
	}
	opts = append(opts, Option{Name: "USI_OwnBook", Value: strconv.FormatBool(c.OwnBook)})
	if c.Hash > 0 {
		opts = append(opts, Option{Name: "USI_Hash", Value: strconv.Itoa(c.Hash)})
	}
	if c.Threads > 0 {
		opts = append(opts, Option{Name: "Threads", Value: strconv.Itoa(c.Threads)})
	}
	names := make([]string, 0, len(c.Options))
	for name := range c.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, Option{Name: name, Value: c.Options[name]})
	}
	return opts
}

// ResolveConfig loads the config at arg, or the nearest config.json when arg is
// empty. Without any config file it returns DefaultConfig rooted at the
// working directory.
func ResolveConfig(arg string) (Config, string, error) {
	if arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return Config{}, "", err
		}
		cfg, err := LoadConfig(abs)
		return cfg, filepath.Dir(abs), err
	}
	path, root, err := FindConfigPath()
	if err != nil {
		cwd, werr := os.Getwd()
		if werr != nil {
			return Config{}, "", werr
		}
		return DefaultConfig(), cwd, nil
	}
	cfg, err := LoadConfig(path)
	return cfg, root, err
}
