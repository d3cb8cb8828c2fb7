package maincmd

import "github.com/caarlos0/env/v6"

// RuntimeConfig is environment-driven configuration that composes with,
// but never replaces, the CLI flags in Cmd: it covers the handful of
// knobs a flag doesn't make sense for (deployment-time VM limits), read
// once at startup the same way mainer.Parser's own EnvPrefix convention
// reads flag values from the environment.
type RuntimeConfig struct {
	// MaxStackWords caps the VM's combined code+stack word vector. 0
	// (the default) means unbounded.
	MaxStackWords int `env:"MAX_STACK_WORDS" envDefault:"0"`

	// TraceOverrun, if set, dumps the VM's stack tail to stderr
	// alongside an instruction-fetch-overread report.
	TraceOverrun bool `env:"TRACE_OVERRUN" envDefault:"false"`
}

// loadRuntimeConfig reads RuntimeConfig from the process environment,
// variables prefixed FLEXUL_ (FLEXUL_MAX_STACK_WORDS,
// FLEXUL_TRACE_OVERRUN), mirroring binName+"_" as used by mainer.Parser.
func loadRuntimeConfig() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}
