package cmd

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Registry stores commands by invocation name. It does not dispatch; each
// adapter looks commands up and invokes them with its own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Names must be a single lowercase token and unique.
func (r *Registry) Register(c Command) error {
	name := c.Name()
	if err := validateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	r.commands[name] = c
	return nil
}

// Get returns the command with the given name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("command name is empty")
	}
	if strings.ToLower(name) != name {
		return fmt.Errorf("command name %q must be lowercase", name)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("command name %q contains whitespace", name)
	}
	return nil
}
