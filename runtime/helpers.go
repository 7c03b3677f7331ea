package cbor

// IsLikelyJSON reports whether b looks like JSON text rather than CBOR. It
// is a heuristic: the data must be valid UTF-8 and its first non-whitespace
// byte must be able to start a JSON value. Most CBOR payloads fail one of
// the two checks.
func IsLikelyJSON(b []byte) bool {
	if !isUTF8Valid(b) {
		return false
	}
	i := 0
	for i < len(b) {
		c := b[i]
		if c == ' ' || c == '\n' || c == '\r' || c == '\t' {
			i++
			continue
		}
		break
	}
	if i >= len(b) {
		return false
	}
	switch ch := b[i]; {
	case ch == '{' || ch == '[' || ch == '"' || ch == '-':
		return true
	case ch >= '0' && ch <= '9':
		return true
	case ch == 't' || ch == 'f' || ch == 'n':
		return true
	}
	return false
}
