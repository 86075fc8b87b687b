package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/textnorm"
)

// StripCodeFences removes a ```json ... ``` (or bare ```) wrapper that models like to add.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// NormalizeAndSanitizeJSON
// - Trims strings and turns null text fields into ""
// - Drops null budget items and unknown keys
// - Coerces amounts like "1,500" or "฿300" to numbers
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	dropUnknown := func(obj map[string]any, prefix string, allowed ...string) {
		for k := range maps.Clone(obj) {
			known := false
			for _, a := range allowed {
				if k == a {
					known = true
					break
				}
			}
			if !known {
				delete(obj, k)
				dropped = append(dropped, prefix+k+"(unknown)")
			}
		}
	}

	for _, k := range []string{"project_name", "responsible_person"} {
		m[k] = textField(m[k])
	}

	var items []any
	switch t := m["budget_items"].(type) {
	case []any:
		for i, v := range t {
			obj, ok := v.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("budget_items[%d](type)", i))
				continue
			}
			prefix := fmt.Sprintf("budget_items[%d].", i)
			obj["activity_name"] = textField(obj["activity_name"])
			obj["description"] = textField(obj["description"])
			amount, ok := coerceAmount(obj["amount"])
			if !ok {
				dropped = append(dropped, prefix+"amount(type)")
			}
			obj["amount"] = amount
			dropUnknown(obj, prefix, "activity_name", "description", "amount")
			items = append(items, obj)
		}
	case nil:
	default:
		dropped = append(dropped, "budget_items(type)")
	}
	if items == nil {
		items = []any{}
	}
	m["budget_items"] = items

	dropUnknown(m, "", "project_name", "responsible_person", "budget_items")

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func textField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// coerceAmount returns 0,false for anything it cannot read as a number; the record
// validator then reports the item.
func coerceAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(textnorm.FoldDigits(t))
		s = strings.TrimPrefix(s, "฿")
		s = strings.TrimSuffix(s, "บาท")
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
