package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/greeter.txt
	greeterRaw string

	//go:embed template/retention.txt
	retentionRaw string

	//go:embed template/processor.txt
	processorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Greeter   string
	Retention string
	Processor string
}

// LoadPromptSet returns the embedded system prompts, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Greeter:   strings.TrimSpace(greeterRaw),
		Retention: strings.TrimSpace(retentionRaw),
		Processor: strings.TrimSpace(processorRaw),
	}
}
