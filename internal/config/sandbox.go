package config

import (
	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals are removed before a manifest runs. A manifest only
// computes a table: it has no business touching the process, the
// filesystem or other code, and metatable access would let it unlock the
// read-only platform table.
var blockedGlobals = []string{
	// process and filesystem
	"os", "io",
	// code loading
	"require", "module", "package", "dofile", "loadfile", "load", "loadstring",
	// introspection
	"debug", "getmetatable", "setmetatable", "rawset", "rawget", "rawequal",
	"collectgarbage",
}

// newSandboxedVM returns a Lua state with the string, table and math
// libraries and nothing that reaches outside the VM.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  8 * 1024,
	})
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
