package hooks

// Config is the top-level configuration loaded from .applywiz.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig lists the supported hook points.
type HooksConfig struct {
	// PostSubmit runs once after an application was accepted.
	PostSubmit *HookConfig `yaml:"post_submit"`
}

// HookConfig is one shell command.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
}

// DefaultTimeout is the hook timeout in seconds when none is configured.
const DefaultTimeout = 30
