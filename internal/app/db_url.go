package app

import (
	"net/url"
	"strings"
)

// normalizeDBURL adds disable_prepared_binary_result to URL-form DSNs when
// the config asks for it. A value already present in the URL wins.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		// A key=value DSN has no scheme; re-encoding it would percent-escape
		// the spaces between pairs.
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// dbNameFromURL pulls the database name out of a URL or key=value DSN for
// log fields and span attributes. Unparseable input yields "".
func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if name := dbNameFromURLForm(trimmed); name != "" {
		return name
	}

	return dbNameFromKeyValueForm(trimmed)
}

func dbNameFromURLForm(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
}

func dbNameFromKeyValueForm(dsn string) string {
	for _, token := range strings.Fields(dsn) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
