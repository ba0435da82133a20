package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/waclaw/pkg/config"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

func testSettings() map[string]store.SettingValue {
	cfg := config.ChatConfig{
		Model:           "gpt-4",
		Temperature:     0.5,
		MaxTokens:       2000,
		PresencePenalty: 0.6,
		MaxContexts:     100,
	}
	return DefaultSettings(cfg, "sk-abcdef123456")
}

func TestDefaultSettings_Kinds(t *testing.T) {
	settings := testSettings()

	assert.Equal(t, store.KindString, settings["model"].Kind())
	assert.Equal(t, store.KindFloat, settings["temperature"].Kind())
	assert.Equal(t, store.KindInt, settings["max_tokens"].Kind())
	assert.Equal(t, store.KindInt, settings["frequency_penalty"].Kind())
	assert.Equal(t, store.KindFloat, settings["presence_penalty"].Kind())
	assert.Equal(t, store.KindNull, settings["seed"].Kind())
	assert.Equal(t, store.KindInt, settings["max_contexts"].Kind())
	assert.Equal(t, store.KindString, settings["api_key"].Kind())
}

func TestReconcileSettings_ChangesValue(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "/settings\nmax_tokens=500")

	assert.Equal(t, []string{"max_tokens"}, changed)
	assert.Equal(t, int64(500), settings["max_tokens"].Int())
}

func TestReconcileSettings_SameValueNotReported(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "max_tokens=2000")

	assert.Empty(t, changed)
	assert.Equal(t, int64(2000), settings["max_tokens"].Int())
}

func TestReconcileSettings_LinesWithoutEqualsIgnored(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "/settings\nplease update\ntemperature=0.9")

	assert.Equal(t, []string{"temperature"}, changed)
	assert.InDelta(t, 0.9, settings["temperature"].Float(), 1e-9)
}

func TestReconcileSettings_UnknownKeyIgnored(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "banana=5")

	assert.Empty(t, changed)
	_, exists := settings["banana"]
	assert.False(t, exists, "key set must never grow")
}

func TestReconcileSettings_BadCoercionSkipsLineOnly(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "max_tokens=lots\ntemperature=0.9")

	require.Equal(t, []string{"temperature"}, changed)
	assert.Equal(t, int64(2000), settings["max_tokens"].Int(), "bad line must leave value untouched")
}

func TestReconcileSettings_SeedStaysNull(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "seed=42")

	assert.Empty(t, changed)
	assert.True(t, settings["seed"].IsNull())
}

func TestReconcileSettings_RepeatedKeyReportedOnce(t *testing.T) {
	settings := testSettings()

	changed := ReconcileSettings(settings, "max_tokens=100\ntemperature=0.1\nmax_tokens=300")

	assert.Equal(t, []string{"max_tokens", "temperature"}, changed)
	assert.Equal(t, int64(300), settings["max_tokens"].Int(), "last value wins")
}

func TestReconcileSettings_ValueMayContainEquals(t *testing.T) {
	settings := testSettings()

	ReconcileSettings(settings, "model=a=b")

	assert.Equal(t, "a=b", settings["model"].Str())
}

func TestFormatSettings_SortedAndMasked(t *testing.T) {
	settings := testSettings()

	out := FormatSettings(settings)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 8)
	sorted := append([]string(nil), lines...)
	assert.True(t, sortedStrings(sorted), "lines must be sorted: %v", lines)

	assert.Equal(t, "api_key=sk-..456", lines[0])
	assert.NotContains(t, out, "sk-abcdef123456")
	assert.Contains(t, lines, "seed=null")
	assert.Contains(t, lines, "max_tokens=2000")
}

func TestFormatSettings_ShortSecretStillMasked(t *testing.T) {
	settings := map[string]store.SettingValue{
		"api_key": store.StringValue("ab"),
	}

	out := FormatSettings(settings)

	assert.Equal(t, "api_key=ab..ab", out)
	assert.NotEqual(t, "api_key=ab", out)
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
