package request

import (
	"encoding/json"
	"strings"

	"github.com/Brownie44l1/corehttp/internal/pairs"
)

// readData merges the query string with whatever the body contributes.
// Body fields win on key clashes. Bodies that fail to parse add nothing.
func readData(query string, body []byte, contentType string) pairs.Values {
	data := make(pairs.Values)

	if query != "" {
		data = pairs.Query.Parse(strings.TrimPrefix(query, "?"))
	}

	if len(body) == 0 {
		return data
	}

	switch media := mediaType(contentType); {
	case isJSON(media):
		data.Merge(jsonStrings(body))
	case media == "application/x-www-form-urlencoded":
		data.Merge(pairs.Query.Parse(string(body)))
	}

	return data
}

// jsonStrings keeps the string-valued top-level fields of a JSON object
func jsonStrings(body []byte) pairs.Values {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}

	out := make(pairs.Values, len(fields))
	for key, raw := range fields {
		if s, ok := raw.(string); ok {
			out[key] = pairs.StringValue(s)
		}
	}
	return out
}

// mediaType strips parameters such as charset from a Content-Type value
func mediaType(contentType string) string {
	media, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(media))
}

func isJSON(media string) bool {
	return media == "application/json" || strings.HasSuffix(media, "+json")
}
