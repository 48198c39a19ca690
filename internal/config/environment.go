package config

import "strings"

// Environment names used for per-environment template directories.
const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
	EnvAll   = "all"
)

// Environments is the set of active release targets derived from the
// --environment flag. All implies Dev, Stage and Prod for every consumer;
// use Includes rather than reading the fields directly.
type Environments struct {
	Dev   bool
	Stage bool
	Prod  bool
	All   bool
}

// ResolveEnvironments maps the raw flag value onto an Environments set.
// "true" (a bare --environment flag) is equivalent to "all". Unrecognized
// values leave every target disabled; only the shared pages output is then
// written.
func ResolveEnvironments(flag string) Environments {
	var envs Environments
	switch flag {
	case EnvDev:
		envs.Dev = true
	case EnvStage:
		envs.Stage = true
	case EnvProd:
		envs.Prod = true
	case EnvAll, "true":
		envs.All = true
	}
	return envs
}

// Includes reports whether the named environment is active.
func (e Environments) Includes(env string) bool {
	switch env {
	case EnvDev:
		return e.All || e.Dev
	case EnvStage:
		return e.All || e.Stage
	case EnvProd:
		return e.All || e.Prod
	default:
		return false
	}
}

// Active lists active environments in release order.
func (e Environments) Active() []string {
	out := make([]string, 0, 3)
	for _, env := range []string{EnvDev, EnvStage, EnvProd} {
		if e.Includes(env) {
			out = append(out, env)
		}
	}
	return out
}

// Any reports whether at least one environment will receive output.
func (e Environments) Any() bool {
	return len(e.Active()) > 0
}

func (e Environments) String() string {
	active := e.Active()
	if len(active) == 0 {
		return "none"
	}
	return strings.Join(active, ",")
}
