package gitlab

// Token is a GitLab API token. It redacts itself when formatted so it never
// leaks into logs or error messages.
type Token struct {
	value string
}

// NewToken wraps a raw token string. An empty token means unauthenticated
// access, which works for public projects.
func NewToken(value string) Token {
	return Token{value: value}
}

// Empty reports whether no token was provided.
func (t Token) Empty() bool {
	return t.value == ""
}

func (t Token) String() string {
	if t.value == "" {
		return ""
	}
	return "<redacted>"
}

// GoString keeps %#v output redacted as well.
func (t Token) GoString() string {
	return "gitlab.Token{<redacted>}"
}
