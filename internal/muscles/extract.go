package muscles

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ClassificationPayload is the model's answer for one exercise.
type ClassificationPayload struct {
	Primary   string
	Secondary []string
}

// ExtractJSON parses the span from the first '{' to the last '}' of raw as
// a JSON object. Models wrap their JSON in prose and code fences, so the
// rest of the text is ignored. The boolean is false when there is no such
// span or it does not parse.
func ExtractJSON(raw string) (map[string]any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// PayloadFromObject reads "primary" and "secondary" from an extracted object.
// Null, false and zero entries become empty strings and are dropped by NormalizeLabels; a
// bare string in "secondary" is treated as a one-element list.
func PayloadFromObject(obj map[string]any) ClassificationPayload {
	payload := ClassificationPayload{Primary: stringValue(obj["primary"])}
	switch v := obj["secondary"].(type) {
	case []any:
		for _, entry := range v {
			payload.Secondary = append(payload.Secondary, stringValue(entry))
		}
	case string:
		payload.Secondary = []string{v}
	}
	return payload
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if !x {
			return ""
		}
		return "true"
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
