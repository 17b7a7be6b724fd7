package env

import (
	"os"
	"strings"
)

func snapshotOSEnv() vars {
	local := make(vars)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			local[k] = kv[i+1:]
		}
	}
	return local
}
