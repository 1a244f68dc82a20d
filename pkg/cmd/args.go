package cmd

import "strconv"

// Argument is one parsed value. Name is the schema key, or the positional
// index for untyped schemas.
type Argument struct {
	Name  string
	Value any
	Type  Type
}

// ArgumentList is the ordered result of one parse.
type ArgumentList struct {
	items []Argument
	index map[string]int
}

// NewArgumentList returns an empty list.
func NewArgumentList() *ArgumentList {
	return &ArgumentList{index: make(map[string]int)}
}

// Add appends a value. A repeated name replaces the earlier lookup.
func (l *ArgumentList) Add(name string, value any, t Type) {
	l.index[name] = len(l.items)
	l.items = append(l.items, Argument{Name: name, Value: value, Type: t})
}

// Get returns the value stored under name, or nil.
func (l *ArgumentList) Get(name string) any {
	if i, ok := l.index[name]; ok {
		return l.items[i].Value
	}
	return nil
}

// String returns the value under name as a string, or "" when it is absent,
// nil, or not a string.
func (l *ArgumentList) String(name string) string {
	s, _ := l.Get(name).(string)
	return s
}

// Int returns the value under name as an int.
func (l *ArgumentList) Int(name string) (int, bool) {
	n, ok := l.Get(name).(int)
	return n, ok
}

// Has reports whether name was parsed to a non-nil value.
func (l *ArgumentList) Has(name string) bool {
	return l.Get(name) != nil
}

// At returns the positional argument at i.
func (l *ArgumentList) At(i int) string {
	return l.String(strconv.Itoa(i))
}

// Len returns the number of parsed arguments.
func (l *ArgumentList) Len() int { return len(l.items) }

// All returns the arguments in parse order.
func (l *ArgumentList) All() []Argument {
	out := make([]Argument, len(l.items))
	copy(out, l.items)
	return out
}
