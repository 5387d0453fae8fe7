package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Prompt is one system/user prompt pair with its sampling parameters
type Prompt struct {
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	System       string  `yaml:"system"`
	UserTemplate string  `yaml:"user_template"`
}

// PromptConfig holds the prompts used to summarise bills
type PromptConfig struct {
	Paragraph Prompt `yaml:"paragraph"`
	Bullets   Prompt `yaml:"bullets"`
}

// DefaultPrompts returns the built-in summary prompts
func DefaultPrompts() *PromptConfig {
	return &PromptConfig{
		Paragraph: Prompt{
			Temperature: 0,
			MaxTokens:   400,
			System:      "You summarise residential utility bills for the account holder. Use only figures that appear in the bill text.",
			UserTemplate: `Write a concise summary of the following utility bill in one paragraph.
Mention the billing period, the total amount due and the largest charges.

{{.Text}}`,
		},
		Bullets: Prompt{
			Temperature: 0,
			MaxTokens:   600,
			System:      "You summarise residential utility bills for the account holder. Use only figures that appear in the bill text.",
			UserTemplate: `Summarise the following utility bill using exactly this template:

- Billing period:
- Amount due:
- Due date:
- Usage:
- Delivery charges:
- Supply charges:
- Taxes and surcharges:
- Notable changes:

Leave a field empty when the bill does not state it.

{{.Text}}`,
		},
	}
}

// LoadPrompts loads prompt configuration from a YAML file. Prompts missing
// from the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
