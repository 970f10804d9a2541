package runtime

import (
	"testing"

	"tinygo.org/x/go-llvm"
)

func TestDeclareAllRegistersEveryABISymbol(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("t")
	defer mod.Dispose()

	d := DeclareAll(ctx, mod)

	want := []string{
		"lency_vec_new", "lency_vec_push", "lency_vec_pop", "lency_vec_len", "lency_vec_get", "lency_vec_set", "lency_vec_free",
		"lency_hashmap_new", "lency_hashmap_insert", "lency_hashmap_get", "lency_hashmap_contains", "lency_hashmap_remove", "lency_hashmap_len",
		"lency_hashmap_str_new", "lency_hashmap_str_insert", "lency_hashmap_str_get", "lency_hashmap_str_contains", "lency_hashmap_str_remove", "lency_hashmap_str_len",
		"lency_file_open", "lency_file_read_all", "lency_file_write", "lency_file_close", "lency_file_exists", "lency_file_is_dir",
		"lency_int_to_string", "lency_float_to_string", "lency_parse_int", "lency_parse_float", "lency_free_string",
		"concat", "strcmp",
	}
	for _, name := range want {
		if _, ok := d.Funcs[name]; !ok {
			t.Errorf("DeclareAll did not register %q", name)
		}
	}

	for _, v := range []llvm.Value{d.Printf, d.Exit, d.Malloc, d.Panic} {
		if v.IsNil() {
			t.Errorf("expected cached handle to be non-nil")
		}
	}

	if d.Funcs["__lency_panic"].IsNil() {
		t.Errorf("expected __lency_panic to be registered in the lookup table")
	}
}
