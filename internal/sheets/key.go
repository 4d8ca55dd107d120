package sheets

import "strings"

// ParsePrivateKey normalizes a PEM key taken from an environment
// variable: surrounding quotes (some env loaders keep them) are stripped
// and literal \n sequences become real newlines.
func ParsePrivateKey(key string) string {
	k := key
	if len(k) >= 2 {
		if (strings.HasPrefix(k, `"`) && strings.HasSuffix(k, `"`)) ||
			(strings.HasPrefix(k, "'") && strings.HasSuffix(k, "'")) {
			k = k[1 : len(k)-1]
		}
	}
	return strings.ReplaceAll(k, `\n`, "\n")
}
