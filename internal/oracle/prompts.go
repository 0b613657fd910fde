package oracle

import (
	"embed"
	"path"
	"strings"
)

//go:embed prompts/*.md
var promptFS embed.FS

const (
	promptMatch          = "match.md"
	promptMatchRequest   = "match_request.md"
	promptNarrate        = "narrate.md"
	promptNarrateRequest = "narrate_request.md"
	promptConverse       = "converse.md"
	promptGreet          = "greet.md"
)

func mustPrompt(name string) string {
	content, err := promptFS.ReadFile(path.Join("prompts", name))
	if err != nil {
		panic("oracle: missing embedded prompt " + name)
	}
	return strings.TrimSpace(string(content))
}

// fill replaces {{KEY}} placeholders in template.
func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
