package ir

import "github.com/mamba-lang/mamba/pkg/nucleus/types"

// Variable is a module-level global: a named, typed storage location
// addressable from any function in the module via OpGlobal, rather
// than a value local to one function's arena.
type Variable struct {
	Name string
	Type types.Type
}

// Module is the top-level unit of compilation: a named collection of
// global Variables and Functions, mirroring ProgramFile as the
// container a textual IR file deserializes into.
type Module struct {
	Name      string
	Variables []*Variable
	Functions []*Function
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddGlobal declares a module-level global variable and returns it.
func (m *Module) AddGlobal(name string, ty types.Type) *Variable {
	v := &Variable{Name: name, Type: ty}
	m.Variables = append(m.Variables, v)
	return v
}

// Variable looks up a global variable by name, returning nil if absent.
func (m *Module) Variable(name string) *Variable {
	for _, v := range m.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// AddFunction appends fn to the module and returns it for chaining.
func (m *Module) AddFunction(fn *Function) *Function {
	m.Functions = append(m.Functions, fn)
	return fn
}

// Function looks up a function by name, returning nil if absent.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
