package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// DefaultSystem is used when no prompt template is configured.
const DefaultSystem = `You are the shopping advisor of this boutique.
Recommend specific products from the list below when they are relevant, and keep answers short.

Products:
{{catalog}}`

// Prompt represents the structure of a TOML prompt file
type Prompt struct {
	System   string  `toml:"system"`
	Greeting *string `toml:"greeting,omitempty"`
	Model    *string `toml:"model,omitempty"`
}

// LoadPrompt loads a prompt file and returns its contents
func LoadPrompt(filePath string) (*Prompt, error) {
	var prompt Prompt
	if _, err := toml.DecodeFile(filePath, &prompt); err != nil {
		return nil, errors.Wrap(err, "error decoding prompt file")
	}
	return &prompt, nil
}

// Find searches promptDirs for name (with or without the .toml extension).
// Later directories take precedence over earlier ones.
func Find(name string, promptDirs []string) (string, error) {
	promptFile := name
	if !strings.HasSuffix(promptFile, ".toml") {
		promptFile = promptFile + ".toml"
	}

	var promptPath string
	for _, promptDir := range promptDirs {
		candidatePath := filepath.Join(promptDir, promptFile)
		if _, err := os.Stat(candidatePath); err == nil {
			promptPath = candidatePath
		}
	}

	if promptPath == "" {
		return "", errors.Errorf("prompt file '%s' not found in any of the prompt directories: %v", promptFile, promptDirs)
	}
	return promptPath, nil
}

// Resolve loads the named prompt from promptDirs. An empty name yields the built-in default.
func Resolve(name string, promptDirs []string) (*Prompt, error) {
	if name == "" {
		return &Prompt{System: DefaultSystem}, nil
	}

	path, err := Find(name, promptDirs)
	if err != nil {
		return nil, err
	}
	return LoadPrompt(path)
}

// Render replaces every {{key}} placeholder in the system template.
func (p *Prompt) Render(vars map[string]string) string {
	system := p.System
	for key, value := range vars {
		system = strings.ReplaceAll(system, "{{"+key+"}}", value)
	}
	return system
}

// CatalogVar is the placeholder filled with the product grounding block.
const CatalogVar = "catalog"

// ParseArgs turns key:value pairs into template variables. Values may escape colons and quotes
// with a backslash; "catalog" is reserved.
func ParseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
			arg = strings.Trim(arg, `"`)
		}

		key, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, errors.Errorf("invalid argument format: %s. Expected format: key:value", arg)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.ReplaceAll(value, `\:`, ":")
		value = strings.ReplaceAll(value, `\"`, `"`)

		if key == CatalogVar {
			return nil, errors.Errorf("'%s' is a reserved keyword and cannot be used as a key", CatalogVar)
		}
		result[key] = value
	}
	return result, nil
}
