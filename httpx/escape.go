package httpx

const lowerhex = "0123456789abcdef"

// Only ASCII letters and digits are left alone; the reserved punctuation
// ;/?:@&=+,${}|\^[]`<>#%" and every other byte is escaped.
func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	return true
}

// Escape percent-encodes every byte of s that is not an ASCII letter or
// digit, using lowercase hex.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	t := make([]byte, len(s)+2*n)
	j := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			t[j] = '%'
			t[j+1] = lowerhex[c>>4]
			t[j+2] = lowerhex[c&15]
			j += 3
			continue
		}
		t[j] = c
		j++
	}
	return string(t)
}

// Unescape reverses Escape. Any %XX sequence is decoded, in either case; a
// '%' that is not followed by two hex digits is an EscapeError.
func Unescape(s string) (string, error) {
	return unescape(s, false)
}

// UnescapeLenient is Unescape except that malformed sequences are copied
// through unchanged.
func UnescapeLenient(s string) string {
	t, _ := unescape(s, true)
	return t
}

func unescape(s string, lenient bool) (string, error) {
	n := 0
	for i := 0; i < len(s); {
		if s[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(s) || !ishex(s[i+1]) || !ishex(s[i+2]) {
			if !lenient {
				end := min(i+3, len(s))
				return "", EscapeError{Seq: s[i:end]}
			}
			i++
			continue
		}
		n++
		i += 3
	}
	if n == 0 {
		return s, nil
	}

	t := make([]byte, 0, len(s)-2*n)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			t = append(t, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		t = append(t, s[i])
	}
	return string(t), nil
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
