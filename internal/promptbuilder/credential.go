package promptbuilder

import (
	"os"
	"strings"
)

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// ResolveCredential returns the explicit key when it is non-blank, otherwise
// the value of envVar. It fails with *MissingCredentialError when both are
// empty. It never touches the network.
func ResolveCredential(explicit, envVar string, lookup LookupEnvFunc) (string, error) {
	if k := strings.TrimSpace(explicit); k != "" {
		return k, nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(envVar); ok {
		if k := strings.TrimSpace(v); k != "" {
			return k, nil
		}
	}
	return "", &MissingCredentialError{EnvVar: envVar}
}
