package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mallornproject/mallorn/internal/decision"
)

// ParseQuery turns key=value command arguments into a query. Values
// are parsed as booleans or numbers when they look like one; quote a
// value to force a string (version=\"56\").
func ParseQuery(args []string) (decision.Query, error) {
	q := decision.Query{}
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid query argument %q (expected key=value)", arg)
		}

		key := strings.TrimSpace(kv[0])
		if key == "" {
			return nil, fmt.Errorf("empty key in query argument %q", arg)
		}
		q[key] = parseLiteral(kv[1])
	}
	return q, nil
}

func parseLiteral(s string) any {
	s = strings.TrimSpace(s)

	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		if s[0] == '\'' {
			s = `"` + s[1:len(s)-1] + `"`
		}
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}

	return s
}
