package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a value while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if at := strings.LastIndex(trimmed, "@"); at > 0 {
		return maskToken + trimmed[at:]
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskFields returns a copy of input with the string values of the named keys masked.
// Nested maps are walked with the same key set.
func MaskFields(input map[string]any, keys ...string) map[string]any {
	if len(input) == 0 {
		return nil
	}
	sensitive := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		sensitive[strings.ToLower(strings.TrimSpace(key))] = struct{}{}
	}
	return maskMap(input, sensitive)
}

func maskMap(input map[string]any, sensitive map[string]struct{}) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		switch cast := value.(type) {
		case string:
			if _, ok := sensitive[strings.ToLower(trimmedKey)]; ok {
				out[trimmedKey] = MaskSecret(cast)
				continue
			}
			out[trimmedKey] = cast
		case map[string]any:
			out[trimmedKey] = maskMap(cast, sensitive)
		default:
			out[trimmedKey] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
