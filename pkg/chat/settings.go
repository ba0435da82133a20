package chat

import (
	"sort"
	"strings"

	"github.com/tinyland-inc/waclaw/pkg/config"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

// maskedKey is the one settings key whose value is hidden in listings.
const maskedKey = "api_key"

// DefaultSettings builds the settings table a chat is seeded with. The
// table fixes both the key set and each key's value type for the lifetime
// of the chat.
func DefaultSettings(cfg config.ChatConfig, apiKey string) map[string]store.SettingValue {
	return map[string]store.SettingValue{
		"model":             store.StringValue(cfg.Model),
		"temperature":       store.FloatValue(cfg.Temperature),
		"max_tokens":        store.IntValue(int64(cfg.MaxTokens)),
		"frequency_penalty": store.IntValue(0),
		"presence_penalty":  store.FloatValue(cfg.PresencePenalty),
		"seed":              store.NullValue(),
		"max_contexts":      store.IntValue(int64(cfg.MaxContexts)),
		"api_key":           store.StringValue(apiKey),
	}
}

// ReconcileSettings applies a settings update text to the settings map in
// place. Each non-empty line of the form key=value is considered; lines
// without '=' are ignored, unrecognized keys are ignored (the key set never
// grows), and values are coerced into the key's existing type. A line whose
// value cannot be coerced is skipped; remaining lines still apply.
//
// The returned slice lists the keys whose value actually changed, ordered
// by first change; repeated updates to one key collapse to the final value.
func ReconcileSettings(settings map[string]store.SettingValue, body string) []string {
	var changed []string
	seen := make(map[string]bool)

	for _, row := range strings.Split(body, "\n") {
		row = strings.TrimSpace(row)
		if !strings.Contains(row, "=") {
			continue
		}
		parts := strings.SplitN(row, "=", 2)
		key, text := parts[0], parts[1]

		current, ok := settings[key]
		if !ok {
			continue
		}
		value, err := current.Coerce(key, text)
		if err != nil {
			logger.WarnCF("chat", "Skipping bad settings line", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if !value.Equal(current) && !seen[key] {
			changed = append(changed, key)
			seen[key] = true
		}
		settings[key] = value
	}

	return changed
}

// FormatSettings renders the settings listing: one key=value line per
// setting, sorted by key, with the secret key's value masked as
// first3 + ".." + last3.
func FormatSettings(settings map[string]store.SettingValue) string {
	lines := make([]string, 0, len(settings))
	for key, value := range settings {
		rendered := value.String()
		if key == maskedKey {
			rendered = maskValue(rendered)
		}
		lines = append(lines, key+"="+rendered)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func maskValue(v string) string {
	head, tail := v, v
	if len(head) > 3 {
		head = head[:3]
		tail = tail[len(tail)-3:]
	}
	return head + ".." + tail
}
