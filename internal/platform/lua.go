package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// LuaGlobal is the name manifests use to read the detected platform.
const LuaGlobal = "platform"

// InjectPlatformTable sets the global "platform" to a read-only view of info.
// Call it before loading the manifest.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	t := info.Target
	fields := map[string]lua.LValue{
		"os":         lua.LString(t.OS),
		"arch":       lua.LString(t.Arch),
		"target":     lua.LString(t.String()),
		"goos":       lua.LString(info.GOOS),
		"goarch":     lua.LString(info.GOARCH),
		"is_linux":   lua.LBool(info.IsLinux()),
		"is_macos":   lua.LBool(info.IsMacOS()),
		"is_windows": lua.LBool(info.IsWindows()),
		"is_x64":     lua.LBool(t.Arch == ArchX64),
		"is_ia32":    lua.LBool(t.Arch == ArchIA32),
		"is_arm64":   lua.LBool(t.Arch == ArchARM64),
		"is_musl":    lua.LBool(info.IsMusl()),
		"distro":     distroValue(L, info.GetDistro()),
		"when":       L.NewFunction(luaWhen),
	}

	tbl := L.CreateTable(0, len(fields))
	for k, v := range fields {
		tbl.RawSetString(k, v)
	}
	L.SetGlobal(LuaGlobal, readOnly(L, tbl))
	return nil
}

func distroValue(L *lua.LState, d *Distro) lua.LValue {
	if d == nil {
		return lua.LNil
	}
	tbl := L.CreateTable(0, 3)
	tbl.RawSetString("id", lua.LString(d.ID))
	tbl.RawSetString("family", lua.LString(d.Family))
	tbl.RawSetString("version", lua.LString(d.Version))
	return tbl
}

// luaWhen implements platform.when(cond, value): value if cond holds, else nil.
func luaWhen(L *lua.LState) int {
	if L.CheckBool(1) {
		L.Push(L.Get(2))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// readOnly wraps tbl in an empty proxy whose metatable forwards reads and
// raises on writes. getmetatable() on the proxy returns a string.
func readOnly(L *lua.LState, tbl *lua.LTable) *lua.LTable {
	mt := L.CreateTable(0, 3)
	mt.RawSetString("__index", tbl)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s is read-only", LuaGlobal)
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("locked"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
