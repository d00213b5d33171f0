package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		in   string
		want TypeRef
	}{
		{"string", Basic("string")},
		{"error", Basic("error")},
		{"Service", Named("", "Service")},
		{"time.Duration", Named("time", "Duration")},
		{"github.com/jhump/gombok/perf4j.Provider", Named("github.com/jhump/gombok/perf4j", "Provider")},
		{"*github.com/jhump/gombok/perf4j.StopWatch", PointerTo(Named("github.com/jhump/gombok/perf4j", "StopWatch"))},
		{"[]byte", SliceOf(Basic("byte"))},
		{"map[string]any", MapOf(Basic("string"), Basic("any"))},
		{"func()", FuncOf(nil, nil, false)},
		{"func(string, ...int) (int, error)", FuncOf(
			[]TypeRef{Basic("string"), SliceOf(Basic("int"))},
			[]TypeRef{Basic("int"), Basic("error")}, true)},
		{"func(func() error, int) error", FuncOf(
			[]TypeRef{FuncOf(nil, []TypeRef{Basic("error")}, false), Basic("int")},
			[]TypeRef{Basic("error")}, false)},
		{"void", Void},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseType(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.in, got.String())
		})
	}
}

func TestParseType_Errors(t *testing.T) {
	for _, in := range []string{
		"", "*", "map[string", "func(int", "github.com/foo", "[]int ]", "func(...int, string)",
		"foo-bar", "1st", "example.com/pkg.foo-bar", "example.com/pkg.1st",
		"[]void", "*void", "map[string]void", "func(void)", "func() void",
	} {
		_, err := ParseType(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestTypeRef_Qualified(t *testing.T) {
	typ := Type("func(*github.com/jhump/gombok/perf4j.StopWatch) error")
	got := typ.Qualified(func(pkg string) string {
		if pkg == "github.com/jhump/gombok/perf4j" {
			return "p4j"
		}
		return ""
	})
	assert.Equal(t, "func(*p4j.StopWatch) error", got)
	assert.Equal(t, []string{"github.com/jhump/gombok/perf4j"}, typ.PackagePaths())
}

func TestBuildersDoNotAlias(t *testing.T) {
	base := NewBlock().WithStatement(Return(Null()))
	a := base.WithStatement(Do(Name("a")))
	b := base.WithStatement(Do(Name("b")))
	assert.Len(t, base.Stmts, 1)
	assert.Equal(t, Do(Name("a")), a.Stmts[1])
	assert.Equal(t, Do(Name("b")), b.Stmts[1])

	m := NewMethodDecl(Void, "Foo").WithArgument(NewArg(Basic("int"), "x"))
	m2 := m.WithArgument(NewArg(Basic("int"), "y"))
	assert.Len(t, m.Args, 1)
	assert.Len(t, m2.Args, 2)
	assert.Nil(t, m.Results)
	assert.False(t, m.IsPublic())
	assert.True(t, m.MakePublic().IsPublic())
	assert.False(t, m.MakePublic().MakePrivate().IsPublic())
}

func TestExec_Conditional(t *testing.T) {
	setter := func(cond Expr) MethodDecl {
		return NewMethodDecl(Void, "Set").
			WithArgument(NewArg(Basic("any"), "v")).
			WithStatement(If(cond).
				Then(NewBlock().WithStatement(Assign(Field("f"), StaticCall(Named("", "Default"), "New")))).
				Else(NewBlock().WithStatement(Assign(Field("f"), Name("v")))))
	}

	dflt := &struct{ name string }{"default"}
	frame := NewFrame()
	frame.StaticCall = func(t TypeRef, method string, args []interface{}) (interface{}, error) {
		return dflt, nil
	}
	var typedNil *struct{ name string }
	other := &struct{ name string }{"other"}

	for _, m := range []MethodDecl{setter(Equal(Name("v"), Null())), setter(IsNull(Name("v")))} {
		_, err := Run(frame, m, nil)
		require.NoError(t, err)
		assert.Same(t, dflt, frame.Fields["f"])

		_, err = Run(frame, m, other)
		require.NoError(t, err)
		assert.Same(t, other, frame.Fields["f"])
	}

	// an interface holding a nil pointer is not equal to null
	_, err := Run(frame, setter(Equal(Name("v"), Null())), typedNil)
	require.NoError(t, err)
	assert.Same(t, typedNil, frame.Fields["f"])

	_, err = Run(frame, setter(IsNull(Name("v"))), typedNil)
	require.NoError(t, err)
	assert.Same(t, dflt, frame.Fields["f"])
}

func TestEval_Equal(t *testing.T) {
	var typedNil *int
	one, two := 1, 1
	cases := []struct {
		name        string
		left, right interface{}
		want        bool
	}{
		{name: "both nil", want: true},
		{name: "typed nil", left: typedNil, want: false},
		{name: "same typed nil", left: typedNil, right: typedNil, want: true},
		{name: "same pointer", left: &one, right: &one, want: true},
		{name: "distinct pointers", left: &one, right: &two, want: false},
		{name: "different types", left: 1, right: int64(1), want: false},
		{name: "not comparable", left: []int{1}, right: []int{1}, want: false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			frame := NewFrame()
			frame.Locals["l"], frame.Locals["r"] = c.left, c.right
			got, err := Eval(frame, Equal(Name("l"), Name("r")))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	frame := NewFrame()
	frame.Locals["m"] = map[string]int(nil)
	got, err := Eval(frame, IsNull(Name("m")))
	require.NoError(t, err)
	assert.Equal(t, true, got)
	frame.Locals["m"] = 0
	got, err = Eval(frame, IsNull(Name("m")))
	require.NoError(t, err)
	assert.Equal(t, false, got)
}

func TestExec_ReturnAndCall(t *testing.T) {
	m := NewMethodDecl(Basic("int"), "Get").
		WithStatement(Return(CallMethod(Field("target"), "Len", Name("x"))))
	m = m.WithArgument(NewArg(Basic("int"), "x"))

	frame := NewFrame()
	frame.Fields["target"] = "receiver"
	var gotRecv interface{}
	var gotArgs []interface{}
	frame.Invoke = func(recv interface{}, method string, args []interface{}) (interface{}, error) {
		gotRecv, gotArgs = recv, args
		return 42, nil
	}
	v, err := Run(frame, m, 7)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "receiver", gotRecv)
	assert.Equal(t, []interface{}{7}, gotArgs)

	frame.Fields["target"] = nil
	_, err = Run(frame, m, 7)
	assert.Error(t, err)

	_, err = Run(frame, m)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	m := NewMethodDecl(Void, "SetProvider").
		MakePublic().
		WithArgument(NewArg(Named("example.com/p", "Provider"), "provider")).
		WithStatement(If(IsNull(Name("provider"))).
			Then(NewBlock().WithStatement(Assign(Field("provider"), StaticCall(Named("example.com/p", "Default"), "Get")))).
			Else(NewBlock().WithStatement(Assign(Field("provider"), Name("provider")))))

	want := `public void SetProvider(example.com/p.Provider provider) {
    if (provider == null) {
        this.provider = example.com/p.Default.Get();
    } else {
        this.provider = provider;
    }
}`
	assert.Equal(t, want, Format(m))

	f := NewFieldDecl(Basic("int"), "count")
	assert.Equal(t, "private int count", Format(f))
}
