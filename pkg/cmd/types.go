package cmd

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Type attempts to consume a prefix of the input. On success it returns the
// typed value and the unconsumed remainder. Types are stateless and shared.
type Type interface {
	Name() string
	Match(input string) (value any, rest string, ok bool)
}

// optionalSentinel marks a Type name as optional in usage strings.
const optionalSentinel = "?"

type matcher struct {
	name  string
	match func(input string) (any, string, bool)
}

func (m matcher) Name() string { return m.name }

func (m matcher) Match(input string) (any, string, bool) { return m.match(input) }

// NewType builds a Type from a display name and a match function.
func NewType(name string, match func(input string) (any, string, bool)) Type {
	return matcher{name: name, match: match}
}

// tokenType matches one whitespace-delimited token through conv.
func tokenType(name string, conv func(tok string) (any, bool)) Type {
	return NewType(name, func(input string) (any, string, bool) {
		tok, rest := NextToken(input)
		if tok == "" {
			return nil, input, false
		}
		v, ok := conv(tok)
		if !ok {
			return nil, input, false
		}
		return v, rest, true
	})
}

var (
	digitsRe         = regexp.MustCompile(`^\d+$`)
	channelMentionRe = regexp.MustCompile(`^<#(\d+)>$`)
	roleMentionRe    = regexp.MustCompile(`^<@&(\d+)>$`)
	customEmojiRe    = regexp.MustCompile(`^<a?:(\w+):(\d+)>$`)
	emojiAPINameRe   = regexp.MustCompile(`^\w+:\d+$`)
)

// Str matches any single token.
var Str = tokenType("String", func(tok string) (any, bool) {
	return tok, true
})

// Int matches a base-10 integer token.
var Int = tokenType("Integer", func(tok string) (any, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return nil, false
	}
	return n, true
})

// ID matches a numeric snowflake id.
var ID = tokenType("ID", func(tok string) (any, bool) {
	if !digitsRe.MatchString(tok) {
		return nil, false
	}
	return tok, true
})

// Channel matches a channel mention or a bare channel id and yields the id.
var Channel = tokenType("Channel", func(tok string) (any, bool) {
	if m := channelMentionRe.FindStringSubmatch(tok); m != nil {
		return m[1], true
	}
	if digitsRe.MatchString(tok) {
		return tok, true
	}
	return nil, false
})

// Role matches a role mention, yielding its id, or any bare token verbatim.
// Bare tokens are resolved against the guild by the command.
var Role = tokenType("Role", func(tok string) (any, bool) {
	if m := roleMentionRe.FindStringSubmatch(tok); m != nil {
		return m[1], true
	}
	if strings.HasPrefix(tok, "<") {
		return nil, false
	}
	return tok, true
})

// Emoji matches a unicode emoji or a custom emoji. Custom emoji are
// normalised to the "name:id" form the platform API uses.
var Emoji = tokenType("Emoji", func(tok string) (any, bool) {
	if m := customEmojiRe.FindStringSubmatch(tok); m != nil {
		return m[1] + ":" + m[2], true
	}
	if emojiAPINameRe.MatchString(tok) {
		return tok, true
	}
	if isUnicodeEmoji(tok) {
		return tok, true
	}
	return nil, false
})

const (
	variationSelector = '\uFE0F'
	combiningKeycap   = '\u20E3'
)

// isKeycap matches 0-9, # or * followed by an optional variation selector
// and the combining keycap.
func isKeycap(tok string) bool {
	rs := []rune(tok)
	if len(rs) < 2 || len(rs) > 3 || rs[len(rs)-1] != combiningKeycap {
		return false
	}
	if len(rs) == 3 && rs[1] != variationSelector {
		return false
	}
	return rs[0] == '#' || rs[0] == '*' || (rs[0] >= '0' && rs[0] <= '9')
}

func isUnicodeEmoji(tok string) bool {
	if isKeycap(tok) {
		return true
	}
	wide := false
	for _, r := range tok {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
		if r > unicode.MaxASCII {
			wide = true
		}
	}
	return wide
}

// Ident matches exactly the literal token, case-sensitively.
func Ident(literal string) Type {
	return tokenType(literal, func(tok string) (any, bool) {
		if tok != literal {
			return nil, false
		}
		return tok, true
	})
}

// Choice matches one of the literal tokens and returns it verbatim.
func Choice(literals ...string) Type {
	set := make(map[string]struct{}, len(literals))
	for _, l := range literals {
		set[l] = struct{}{}
	}
	return tokenType(strings.Join(literals, "|"), func(tok string) (any, bool) {
		if _, ok := set[tok]; !ok {
			return nil, false
		}
		return tok, true
	})
}

// Optional never fails: when t does not match it yields a nil value and
// leaves the input untouched.
func Optional(t Type) Type {
	return NewType(optionalSentinel+t.Name(), func(input string) (any, string, bool) {
		v, rest, ok := t.Match(input)
		if !ok {
			return nil, input, true
		}
		return v, rest, true
	})
}

// IsOptional reports whether t was built by Optional.
func IsOptional(t Type) bool {
	return strings.HasPrefix(t.Name(), optionalSentinel)
}

// NextToken splits off the first whitespace-delimited token. Leading
// whitespace is skipped; rest keeps its own leading whitespace.
func NextToken(input string) (tok, rest string) {
	s := strings.TrimLeftFunc(input, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
