// Package pykeconfig loads the invocation-wide pyke-config.json: the default
// action and argument/action aliases that internal/cli consults before
// dispatching, layered default < user < project, each layer able to name
// further files to include, with PYKE_-prefixed environment variables as
// the outermost layer. Grounded on the layered koanf approach
// schoolboyqueue-autospec/internal/config/config.go uses for its own
// default/user/project precedence, adapted from YAML to pyke's JSON,
// include-driven config.
package pykeconfig

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

// recognizedKeys is the closed set of top-level config keys pyke
// understands; any other key is rejected rather than silently ignored.
var recognizedKeys = map[string]bool{
	"include":               true,
	"argument_aliases":      true,
	"action_aliases":        true,
	"default_action":        true,
	"default_arguments":     true,
	"cache_makefile_module": true,
}

// Config is the fully resolved, validated configuration consulted by
// internal/cli before a makefile is even loaded.
type Config struct {
	ArgumentAliases     map[string][]string `koanf:"argument_aliases" validate:"omitempty,dive,keys,required,endkeys,required"`
	ActionAliases       map[string][]string `koanf:"action_aliases" validate:"omitempty,dive,keys,required,endkeys,required"`
	DefaultAction       string              `koanf:"default_action" validate:"required"`
	DefaultArguments    []string            `koanf:"default_arguments"`
	CacheMakefileModule bool                `koanf:"cache_makefile_module"`
}

// Defaults returns the built-in configuration applied before any file is
// read, matching pyke's historical default action names.
func Defaults() Config {
	return Config{
		ActionAliases: map[string][]string{
			"b": {"build"},
			"c": {"clean"},
			"r": {"build", "run"},
		},
		DefaultAction:       "build",
		CacheMakefileModule: true,
	}
}

var validate = validator.New()

// Load resolves the layered config: built-in defaults, then
// ~/.config/pyke/pyke-config.json (or userPath if non-empty), then
// ./pyke-config.json (or projectPath if non-empty). Each file's own
// `include` list is loaded first (recursively), so a file's direct keys
// always win over anything it includes.
func Load(userPath, projectPath string) (*Config, error) {
	k := koanf.New(".")
	applyDefaults(k, Defaults())

	if userPath == "" {
		userPath = defaultUserConfigPath()
	}
	if err := loadFileRecursive(k, userPath, map[string]bool{}); err != nil {
		return nil, err
	}

	if projectPath == "" {
		projectPath = "pyke-config.json"
	}
	if err := loadFileRecursive(k, projectPath, map[string]bool{}); err != nil {
		return nil, err
	}

	// PYKE_DEFAULT_ACTION, PYKE_CACHE_MAKEFILE_MODULE, ... override whatever
	// the file layers set, the outermost layer in the precedence chain.
	if err := k.Load(env.Provider("PYKE_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf, d Config) {
	k.Set("argument_aliases", d.ArgumentAliases)
	k.Set("action_aliases", d.ActionAliases)
	k.Set("default_action", d.DefaultAction)
	k.Set("default_arguments", d.DefaultArguments)
	k.Set("cache_makefile_module", d.CacheMakefileModule)
}

// envTransform maps PYKE_DEFAULT_ACTION -> default_action, matching the
// scalar (non-map, non-list) config keys env overrides are meant for.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "PYKE_"))
}

func defaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pyke", "pyke-config.json")
}

// loadFileRecursive reads path (a no-op if it doesn't exist), schema- and
// key-validates it, loads whatever it includes first, then merges its own
// keys into k. seen guards against an include cycle by absolute path.
func loadFileRecursive(k *koanf.Koanf, path string, seen map[string]bool) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving config path %s: %w", path, err)
	}
	if seen[abs] {
		return fmt.Errorf("config include cycle at %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	seen[abs] = true
	defer delete(seen, abs)

	if err := validateSchema(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	for key := range raw {
		if !recognizedKeys[key] {
			return fmt.Errorf("%s: unknown config key %q", path, key)
		}
	}

	if incRaw, ok := raw["include"]; ok {
		var includes []string
		if err := json.Unmarshal(incRaw, &includes); err != nil {
			return fmt.Errorf("%s: include must be a list of strings", path)
		}
		base := filepath.Dir(path)
		for _, rel := range includes {
			p := rel
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, rel)
			}
			if err := loadFileRecursive(k, p, seen); err != nil {
				return err
			}
		}
	}

	if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	return nil
}

var (
	schemaOnce    sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr     error
)

func compiledConfigSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("pyke-config.schema.json", strings.NewReader(string(schemaJSON))); err != nil {
			schemaErr = fmt.Errorf("loading config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("pyke-config.schema.json")
	})
	return compiledSchema, schemaErr
}

func validateSchema(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	sch, err := compiledConfigSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
