package ast

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

func parseFuncDecl(t *testing.T, src string) (*dst.File, *dst.FuncDecl) {
	t.Helper()
	file, err := decorator.Parse("package main\n\nimport \"C\"\n\n" + src)
	if err != nil {
		t.Fatal(err)
	}
	for _, decl := range file.Decls {
		if funcDecl, ok := decl.(*dst.FuncDecl); ok {
			return file, funcDecl
		}
	}
	t.Fatal("no function declaration")
	return nil, nil
}

func render(t *testing.T, file *dst.File) string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteFile(file, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestNewHookpoint(t *testing.T) {
	file, funcDecl := parseFuncDecl(t, `//preload:hook
func frobulate(real_frobulate func(C.int) C.size_t, n C.int) C.size_t {
	return real_frobulate(n + 42)
}
`)
	if !HasHookDirective(funcDecl) {
		t.Fatal("directive not detected")
	}
	h, err := NewHookpoint(funcDecl, "")
	if err != nil {
		t.Fatal(err)
	}
	if h.Symbol != "frobulate" || h.Binding != "real_frobulate" || h.Library != "" {
		t.Fatalf("unexpected hookpoint %+v", h)
	}
	if h.Signature != "func(C.int) C.size_t" {
		t.Fatalf("Signature = %q", h.Signature)
	}
	if funcDecl.Name.Name != "_preload_hook_frobulate" {
		t.Fatalf("user hook not renamed: %s", funcDecl.Name.Name)
	}

	AddHooklibImport(file)
	file.Decls = append(file.Decls, h.TargetVarDecl, h.WrapperFuncDecl)
	out := render(t, file)
	for _, want := range []string{
		`import _preload_hooklib "github.com/ListenOcean/goPreload/hooklib"`,
		`func _preload_hook_frobulate(real_frobulate func(C.int) C.size_t, n C.int) C.size_t {`,
		`var _preload_target_frobulate = _preload_hooklib.New[func(C.int) C.size_t]("frobulate")`,
		"//export frobulate\nfunc frobulate(n C.int) C.size_t {",
		`return _preload_hook_frobulate(_preload_target_frobulate.Target(), n)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	// import "C" must stay right after its preamble, first among imports.
	if strings.Index(out, `import "C"`) > strings.Index(out, "_preload_hooklib \"") {
		t.Errorf("hooklib import placed before import \"C\":\n%s", out)
	}
}

func TestNewHookpointLibraryAndNoResult(t *testing.T) {
	file, funcDecl := parseFuncDecl(t, `func set_auth_level(_ func(unsafe.Pointer, C.int), param unsafe.Pointer, _ C.int) {
}
`)
	h, err := NewHookpoint(funcDecl, "libssl.so.3")
	if err != nil {
		t.Fatal(err)
	}
	file.Decls = append(file.Decls, h.TargetVarDecl, h.WrapperFuncDecl)
	out := render(t, file)
	for _, want := range []string{
		`_preload_hooklib.New[func(unsafe.Pointer, C.int)]("set_auth_level", _preload_hooklib.WithResolver(_preload_hooklib.Library("libssl.so.3")))`,
		`func set_auth_level(param unsafe.Pointer, _param1 C.int) {`,
		"\t_preload_hook_set_auth_level(_preload_target_set_auth_level.Target(), param, _param1)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "return _preload_hook_set_auth_level") {
		t.Errorf("wrapper without results returns a value:\n%s", out)
	}
}

func TestNewHookpointBlankParams(t *testing.T) {
	file, funcDecl := parseFuncDecl(t, `func check_password(real func(*C.char, C.int) C.int, _ *C.char, _ C.int) C.int {
	return 1
}
`)
	h, err := NewHookpoint(funcDecl, "")
	if err != nil {
		t.Fatal(err)
	}
	file.Decls = append(file.Decls, h.WrapperFuncDecl)
	out := render(t, file)
	if want := `func check_password(_param0 *C.char, _param1 C.int) C.int {`; !strings.Contains(out, want) {
		t.Errorf("output does not contain %q:\n%s", want, out)
	}
	if want := `_preload_target_check_password.Target(), _param0, _param1)`; !strings.Contains(out, want) {
		t.Errorf("output does not contain %q:\n%s", want, out)
	}
}

func TestNewHookpointMisuse(t *testing.T) {
	tests := map[string]string{
		"method":          "func (f *frob) frobulate(real func(C.int), n C.int) {}",
		"generic":         "func frobulate[T any](real func(T), n T) {}",
		"exported":        "//export frobulate\nfunc frobulate(real func(C.int), n C.int) {}",
		"no binding":      "func frobulate() {}",
		"unnamed binding": "func frobulate(func(C.int), C.int) {}",
		"grouped binding": "func frobulate(real, other func(C.int), n C.int) {}",
		"binding type":    "func frobulate(real C.int, n C.int) {}",
		"variadic":        "func frobulate(real func(...C.int), n ...C.int) {}",
		"two results":     "func frobulate(real func(C.int) (C.int, C.int), n C.int) (C.int, C.int) { return 0, 0 }",
		"arity":           "func frobulate(real func(C.int, C.int) C.int, n C.int) C.int { return 0 }",
		"result arity":    "func frobulate(real func(C.int), n C.int) C.int { return 0 }",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, funcDecl := parseFuncDecl(t, src)
			if _, err := NewHookpoint(funcDecl, ""); err == nil {
				t.Fatalf("expected an error for %s", src)
			}
			if funcDecl.Name.Name != "frobulate" {
				t.Fatal("rejected declaration was renamed")
			}
		})
	}
}

func TestDirectives(t *testing.T) {
	file, err := decorator.Parse("//preload:ignore\n\npackage main\n")
	if err != nil {
		t.Fatal(err)
	}
	if !HasIgnoreDirective(file) {
		t.Error("ignore directive not detected")
	}

	_, funcDecl := parseFuncDecl(t, "//preload:hookish\nfunc f(real func()) {}")
	if HasHookDirective(funcDecl) {
		t.Error("//preload:hookish is not the hook directive")
	}
	_, funcDecl = parseFuncDecl(t, "// frobulates.\n//preload:hook\nfunc f(real func()) {}")
	if !HasHookDirective(funcDecl) {
		t.Error("directive after a doc comment not detected")
	}
}

func TestExprString(t *testing.T) {
	_, funcDecl := parseFuncDecl(t, "func f(a *C.char, b []byte, c [4]uint8, d map[string]int, e interface{}, g func(int) (bool, error)) {}")
	want := "func(*C.char, []byte, [4]uint8, map[string]int, interface{}, func(int) (bool, error))"
	if got := ExprString(funcDecl.Type); got != want {
		t.Fatalf("ExprString = %q, want %q", got, want)
	}
}
