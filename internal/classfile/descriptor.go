package classfile

import (
	"fmt"
	"strings"
)

// ObjectTypes returns the internal names referenced by a field or method
// descriptor, in order of appearance.
func ObjectTypes(desc string) []string {
	var out []string
	_ = walkDescriptor(desc, func(name string) string {
		out = append(out, name)
		return name
	})
	return out
}

// RemapDescriptor rewrites every object type in desc through fn.
func RemapDescriptor(desc string, fn func(string) string) (string, error) {
	return walkDescriptorErr(desc, fn)
}

func walkDescriptor(desc string, fn func(string) string) string {
	out, err := walkDescriptorErr(desc, fn)
	if err != nil {
		return desc
	}
	return out
}

func walkDescriptorErr(desc string, fn func(string) string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(desc))
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if c != 'L' {
			sb.WriteByte(c)
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return "", fmt.Errorf("unterminated object type in descriptor %q", desc)
		}
		name := desc[i+1 : i+end]
		if name == "" {
			return "", fmt.Errorf("empty object type in descriptor %q", desc)
		}
		sb.WriteByte('L')
		sb.WriteString(fn(name))
		sb.WriteByte(';')
		i += end
	}
	return sb.String(), nil
}
