// Package command implements the bot's message grammar: a prefix literal
// followed by either a dash-command with positional args or a free-form query.
package command

import "strings"

// ParsedCommand is a command invocation: a lower-cased, non-empty name plus
// positional args.
type ParsedCommand struct {
	Name string
	Args []string
}

// ParsedMessage is the parse result: exactly one of Command or Query is set.
type ParsedMessage struct {
	Command *ParsedCommand
	Query   string
}

// IsCommand reports whether the message is a command invocation.
func (p ParsedMessage) IsCommand() bool {
	return p.Command != nil
}

// Parser splits prefixed message text into commands and queries.
type Parser struct {
	prefix string
}

// NewParser creates a Parser. The prefix must be a non-empty literal.
func NewParser(prefix string) *Parser {
	if prefix == "" {
		panic("command: prefix must not be empty")
	}
	return &Parser{prefix: prefix}
}

// Parse interprets message text. ok is false when the message is not
// addressed to the bot: no prefix, or a prefix with an empty payload.
//
//	"/bot -cmd a b" -> command "cmd" with args [a b]
//	"/bot hola"     -> query "hola"
//	"/bot"          -> not addressed
//	"hello"         -> not addressed
func (p *Parser) Parse(text string) (ParsedMessage, bool) {
	if !strings.HasPrefix(text, p.prefix) {
		return ParsedMessage{}, false
	}

	payload := strings.TrimSpace(text[len(p.prefix):])
	if payload == "" {
		return ParsedMessage{}, false
	}

	parts := strings.Fields(payload)
	first := parts[0]

	if strings.HasPrefix(first, "-") {
		return ParsedMessage{
			Command: &ParsedCommand{
				Name: strings.ToLower(first[1:]),
				Args: parts[1:],
			},
		}, true
	}
	return ParsedMessage{Query: payload}, true
}
