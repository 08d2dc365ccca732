package failure

import "strings"

// Mask replaces secrets in diagnostic output.
const Mask = "********"

// Redact replaces every occurrence of each non-empty secret in msg with Mask.
// Longer secrets are replaced first so a secret that contains another is
// masked whole.
func Redact(msg string, secrets ...string) string {
	ordered := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			ordered = append(ordered, s)
		}
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j]) > len(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for _, s := range ordered {
		msg = strings.ReplaceAll(msg, s, Mask)
	}
	return msg
}

// RedactError returns a copy of e with secrets removed from the message and
// details. The underlying Err is kept for errors.Is/As but is never printed
// by Error().
func RedactError(e *Error, secrets ...string) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.Message = Redact(e.Message, secrets...)
	if len(e.Details) > 0 {
		out.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			out.Details[k] = Redact(v, secrets...)
		}
	}
	return &out
}
