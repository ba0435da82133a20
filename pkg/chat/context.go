package chat

import (
	"github.com/tinyland-inc/waclaw/pkg/llm"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

// DefaultMaxContexts bounds the context window when a chat's max_contexts
// setting is missing or unusable.
const DefaultMaxContexts = 100

// BuildContext replays a transcript into the role-tagged prompt the
// generation provider consumes. Assistant-authored turns are tagged as the
// model's own role, every other author as the user role. If the transcript
// exceeds maxTurns the window keeps the most recent turns, in order.
func BuildContext(instructions string, transcript []store.Turn, maxTurns int) llm.Prompt {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxContexts
	}
	if len(transcript) > maxTurns {
		transcript = transcript[len(transcript)-maxTurns:]
	}

	turns := make([]llm.Turn, 0, len(transcript))
	for _, turn := range transcript {
		role := llm.RoleUser
		if turn.Author == store.AssistantAuthor {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: turn.Body})
	}

	return llm.Prompt{Instructions: instructions, Turns: turns}
}

// CallOptions translates a chat's settings map into generation options.
// Missing or null settings fall back to zero values; the provider applies
// its own defaults from there.
func CallOptions(settings map[string]store.SettingValue) llm.Options {
	opts := llm.Options{
		Model:            settings["model"].Str(),
		Temperature:      settings["temperature"].Float(),
		MaxTokens:        settings["max_tokens"].Int(),
		FrequencyPenalty: settings["frequency_penalty"].Float(),
		PresencePenalty:  settings["presence_penalty"].Float(),
	}
	if seed, ok := settings["seed"]; ok && seed.Kind() == store.KindInt {
		v := seed.Int()
		opts.Seed = &v
	}
	return opts
}

// MaxContexts reads the chat's context window bound from its settings.
func MaxContexts(settings map[string]store.SettingValue) int {
	if v, ok := settings["max_contexts"]; ok && v.Kind() == store.KindInt && v.Int() > 0 {
		return int(v.Int())
	}
	return DefaultMaxContexts
}
