package capture

import "strings"

// Negotiate returns the first candidate in preferences that isSupported
// accepts. When none is supported the first candidate is returned as a
// best-effort default; encoding may still fail later. An empty list yields "".
func Negotiate(preferences []string, isSupported func(string) bool) string {
	if len(preferences) == 0 {
		return ""
	}
	if isSupported != nil {
		for _, candidate := range preferences {
			if isSupported(candidate) {
				return candidate
			}
		}
	}
	return preferences[0]
}

// BaseType returns the lower-cased type/subtype of a MIME string without
// parameters, e.g. "video/webm" for "video/webm;codecs=vp8,opus".
func BaseType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// Codecs returns the codecs parameter of a MIME string, lower-cased.
func Codecs(mimeType string) []string {
	_, params, ok := strings.Cut(mimeType, ";")
	if !ok {
		return nil
	}
	for _, param := range strings.Split(params, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "codecs") {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		var out []string
		for _, codec := range strings.Split(value, ",") {
			if codec = strings.ToLower(strings.TrimSpace(codec)); codec != "" {
				out = append(out, codec)
			}
		}
		return out
	}
	return nil
}
