package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// endOfInput is reported as the found token when the input ran out.
const endOfInput = "END"

type schemaKind int

const (
	schemaNone schemaKind = iota
	schemaUntyped
	schemaTyped
)

// Param is one named, typed schema entry.
type Param struct {
	Name string
	Type Type
}

// P is shorthand for a Param.
func P(name string, t Type) Param { return Param{Name: name, Type: t} }

// Schema describes a command's arguments: none, untyped whitespace-separated
// tokens, or an ordered list of typed params.
type Schema struct {
	kind   schemaKind
	params []Param
}

// NoArgs is the schema of a command that takes no arguments.
var NoArgs = Schema{}

// Untyped splits the remaining text on whitespace; every token is a string.
func Untyped() Schema { return Schema{kind: schemaUntyped} }

// Params builds a typed schema, matched in declaration order.
func Params(params ...Param) Schema {
	return Schema{kind: schemaTyped, params: params}
}

// Typed reports whether the schema is an ordered typed mapping.
func (s Schema) Typed() bool { return s.kind == schemaTyped }

// Params returns the typed entries in declaration order.
func (s Schema) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// ParseError reports the first schema entry that failed to match.
type ParseError struct {
	Name  string
	Type  string
	Found string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Expected `%s`:`%s`, found '%s'", e.Name, e.Type, e.Found)
}

// NoArgsError reports a command with a typed schema invoked without input.
type NoArgsError struct {
	Command string
}

func (e *NoArgsError) Error() string {
	return fmt.Sprintf("Command '%s' can't be called without args.", e.Command)
}

// Parse matches tail against the schema of the named command.
func Parse(command string, s Schema, tail string) (*ArgumentList, error) {
	args := NewArgumentList()
	tail = strings.TrimLeftFunc(tail, unicode.IsSpace)

	switch s.kind {
	case schemaNone:
		return args, nil

	case schemaUntyped:
		for i, tok := range strings.Fields(tail) {
			args.Add(strconv.Itoa(i), tok, Str)
		}
		return args, nil
	}

	if len(s.params) > 0 && tail == "" {
		return nil, &NoArgsError{Command: command}
	}

	for _, p := range s.params {
		value, rest, ok := p.Type.Match(tail)
		if !ok {
			found, _ := NextToken(tail)
			if found == "" {
				found = endOfInput
			}
			return nil, &ParseError{Name: p.Name, Type: p.Type.Name(), Found: found}
		}
		args.Add(p.Name, value, p.Type)
		tail = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}

	return args, nil
}

// Usage renders "name <key:Type> [key:Type]" for typed schemas and
// "name <args>" for untyped ones.
func Usage(name string, s Schema) string {
	var b strings.Builder
	b.WriteString(name)

	switch s.kind {
	case schemaUntyped:
		b.WriteString(" <args>")
	case schemaTyped:
		for _, p := range s.params {
			t := p.Type.Name()
			if IsOptional(p.Type) {
				fmt.Fprintf(&b, " [%s:%s]", p.Name, strings.TrimPrefix(t, optionalSentinel))
			} else {
				fmt.Fprintf(&b, " <%s:%s>", p.Name, t)
			}
		}
	}

	return b.String()
}

// UsageOf renders the usage string of a command.
func UsageOf(c Command) string {
	return Usage(c.Name(), c.Schema())
}
