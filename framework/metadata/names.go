package metadata

import (
	"strings"
	"unicode"
)

// DefaultBeanName is the simple type name with its first letter lowered.
func DefaultBeanName(typeName string) string {
	if i := strings.LastIndex(typeName, "."); i >= 0 {
		typeName = typeName[i+1:]
	}
	return lowerFirst(typeName)
}

// ProducerDefaultName strips a get/set/is prefix from a producer method
// name and lowers the next letter.
func ProducerDefaultName(method string) string {
	for _, prefix := range []string{"get", "set"} {
		if len(method) > 3 && strings.HasPrefix(method, prefix) {
			return lowerFirst(method[3:])
		}
	}
	if len(method) > 2 && strings.HasPrefix(method, "is") {
		return lowerFirst(method[2:])
	}
	return lowerFirst(method)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
