package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Prompter reads answers to interactive questions, one line each.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter. Nil arguments default to stdin and stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed answer, or fallback when the
// answer is empty or cannot be read.
func (p *Prompter) Ask(label, fallback string) string {
	if fallback != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	input, err := p.in.ReadString('\n')
	if err != nil && input == "" {
		if err != io.EOF {
			log.Warn().Err(err).Msg("Failed to read input, using default")
		}
		return fallback
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return fallback
	}
	return input
}

// PromptForImagePath asks for the image to edit.
func (p *Prompter) PromptForImagePath() string {
	return UnquotePath(p.Ask("Image to edit", ""))
}

// PromptForInstruction asks for the edit instruction. Validity is checked
// by the session.
func (p *Prompter) PromptForInstruction() string {
	return p.Ask("Describe your edit", "")
}

// UnquotePath strips the quotes and backslash escapes terminals add when a
// file is dragged onto them.
func UnquotePath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	if strings.HasPrefix(s, "file://") {
		s = strings.TrimPrefix(s, "file://")
	}
	return strings.ReplaceAll(s, `\ `, " ")
}
