package logger

import (
	"net/url"
	"sort"
	"strings"
)

// MaskEmail keeps the first letter of the mailbox and the top-level domain,
// e.g. "farmer1@example.com" becomes "f******@*******.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	masked := local[:1] + strings.Repeat("*", len(local)-1)

	labels := strings.Split(domain, ".")
	for i := range labels[:len(labels)-1] {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}
	return masked + "@" + strings.Join(labels, ".")
}

var sensitiveParams = []string{"password", "token", "secret", "email", "auth"}

func sensitiveParam(name string) bool {
	name = strings.ToLower(name)
	for _, s := range sensitiveParams {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// RedactQuery returns rawQuery with the values of credential-like parameters
// replaced. Listing filters such as district stay readable. An unparsable
// query is redacted whole.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[REDACTED]"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			if sensitiveParam(k) {
				b.WriteString("REDACTED")
			} else {
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}
