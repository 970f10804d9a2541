// Package runtime declares, but never implements, the C-linkage runtime
// ABI boundary lency programs link against: dynamic vectors, hash maps,
// file I/O, scalar-to-string conversions and the panic handler.
// Every function here emits an `llvm.AddFunction` declaration only; the
// actual vec/hashmap/file semantics live in a separate C/Rust runtime
// shared object linked in at the end of the pipeline, never in Go.
package runtime

import "tinygo.org/x/go-llvm"

// Declared is the set of runtime entry points the IR generator looks up by
// name while lowering Vec/HashMap/File operations, array bounds panics and
// scalar conversions.
type Declared struct {
	Printf llvm.Value
	Exit   llvm.Value
	Malloc llvm.Value
	Panic  llvm.Value
	Funcs  map[string]llvm.Value // every lency_* symbol, keyed by name.
}

// DeclareAll emits every runtime ABI declaration into module and returns
// handles to the ones the generator calls directly, plus a lookup table for
// the full symbol set.
func DeclareAll(ctx llvm.Context, module llvm.Module) Declared {
	i8p := llvm.PointerType(ctx.Int8Type(), 0)
	i64 := ctx.Int64Type()
	i32 := ctx.Int32Type()
	f64 := ctx.DoubleType()
	i1 := ctx.Int1Type()
	void := ctx.VoidType()

	funcs := make(map[string]llvm.Value, 32)
	declare := func(name string, ret llvm.Type, params []llvm.Type, variadic bool) llvm.Value {
		fn := llvm.AddFunction(module, name, llvm.FunctionType(ret, params, variadic))
		funcs[name] = fn
		return fn
	}

	d := Declared{Funcs: funcs}
	d.Printf = declare("printf", i32, []llvm.Type{i8p}, true)
	d.Exit = declare("exit", void, []llvm.Type{i32}, false)
	d.Malloc = declare("malloc", i8p, []llvm.Type{i64}, false)
	d.Panic = declare("__lency_panic", void, []llvm.Type{i8p, i64}, false)

	declare("lency_vec_new", i8p, []llvm.Type{i64}, false)
	declare("lency_vec_push", void, []llvm.Type{i8p, i64}, false)
	declare("lency_vec_pop", i64, []llvm.Type{i8p}, false)
	declare("lency_vec_len", i64, []llvm.Type{i8p}, false)
	declare("lency_vec_get", i64, []llvm.Type{i8p, i64}, false)
	declare("lency_vec_set", void, []llvm.Type{i8p, i64, i64}, false)
	declare("lency_vec_free", void, []llvm.Type{i8p}, false)

	declare("lency_hashmap_new", i8p, []llvm.Type{i64}, false)
	declare("lency_hashmap_insert", void, []llvm.Type{i8p, i64, i64}, false)
	declare("lency_hashmap_get", i64, []llvm.Type{i8p, i64}, false)
	declare("lency_hashmap_contains", i1, []llvm.Type{i8p, i64}, false)
	declare("lency_hashmap_remove", i1, []llvm.Type{i8p, i64}, false)
	declare("lency_hashmap_len", i64, []llvm.Type{i8p}, false)

	declare("lency_hashmap_str_new", i8p, []llvm.Type{i64}, false)
	declare("lency_hashmap_str_insert", void, []llvm.Type{i8p, i8p, i64}, false)
	declare("lency_hashmap_str_get", i64, []llvm.Type{i8p, i8p}, false)
	declare("lency_hashmap_str_contains", i1, []llvm.Type{i8p, i8p}, false)
	declare("lency_hashmap_str_remove", i1, []llvm.Type{i8p, i8p}, false)
	declare("lency_hashmap_str_len", i64, []llvm.Type{i8p}, false)

	declare("lency_file_open", i8p, []llvm.Type{i8p, i32}, false)
	declare("lency_file_read_all", i64, []llvm.Type{i8p, i8p, i64}, false)
	declare("lency_file_write", i64, []llvm.Type{i8p, i8p}, false)
	declare("lency_file_close", void, []llvm.Type{i8p}, false)
	declare("lency_file_exists", i64, []llvm.Type{i8p}, false)
	declare("lency_file_is_dir", i64, []llvm.Type{i8p}, false)

	declare("lency_int_to_string", i8p, []llvm.Type{i64}, false)
	declare("lency_float_to_string", i8p, []llvm.Type{f64}, false)
	declare("lency_parse_int", i64, []llvm.Type{i8p, llvm.PointerType(i32, 0)}, false)
	declare("lency_parse_float", f64, []llvm.Type{i8p, llvm.PointerType(i32, 0)}, false)
	declare("lency_free_string", void, []llvm.Type{i8p}, false)

	declare("concat", i8p, []llvm.Type{i8p, i8p}, false)
	declare("strcmp", i32, []llvm.Type{i8p, i8p}, false)

	d.Funcs = funcs
	return d
}
