package handlers

import (
	"go/ast"
	goparser "go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/tools/go/packages"

	"github.com/jhump/gombok/editor"
	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/providers"
	"github.com/jhump/gombok/syntax"
)

type recorderHandler = ProviderAwareHandler[*editor.Recorder, editor.RecordedMethod]

func newHandler(t *testing.T, opts ...Option) *recorderHandler {
	return NewPerf4jAwareHandler[*editor.Recorder, editor.RecordedMethod](append(opts, WithLogger(zaptest.NewLogger(t)))...)
}

type mockDelegator struct {
	mock.Mock
}

func (m *mockDelegator) DelegateMethods(ed editor.Editor, methods []syntax.MethodDescriptor, target syntax.Expr) error {
	return m.Called(ed, methods, target).Error(0)
}

type mockEditor struct {
	mock.Mock
}

func (m *mockEditor) AddField(f syntax.FieldDecl) error {
	return m.Called(f).Error(0)
}

func (m *mockEditor) InjectMethod(md syntax.MethodDecl) error {
	return m.Called(md).Error(0)
}

type mockType struct {
	ed *mockEditor
}

func (mockType) Name() string                     { return "Mocked" }
func (mockType) Methods() []editor.RecordedMethod { return nil }
func (m mockType) Editor() editor.Editor          { return m.ed }

var (
	perf4j       = providers.Perf4j()
	defaultValue = &struct{ name string }{"default"}
)

func newFrame() *syntax.Frame {
	f := syntax.NewFrame()
	f.StaticCall = func(t syntax.TypeRef, method string, args []interface{}) (interface{}, error) {
		if t.Pkg == providers.Perf4jPackage && t.Name == "DefaultProvider" && method == perf4j.Factory && len(args) == 0 {
			return defaultValue, nil
		}
		return nil, errors.Newf("unexpected call %s.%s", t, method)
	}
	return f
}

func TestAddProviderField(t *testing.T) {
	rec := editor.NewRecorder("Service")
	require.NoError(t, newHandler(t).AddProviderField(rec))

	require.Len(t, rec.Requests(), 1)
	fields := rec.Fields()
	require.Len(t, fields, 1)
	f := fields[0]
	assert.Equal(t, "perf4jProvider", f.Name)
	assert.Equal(t, syntax.Named(providers.Perf4jPackage, "Provider"), f.Type)
	assert.Equal(t, syntax.Private, f.Modifiers)
	assert.Equal(t, syntax.StaticCall(syntax.Named(providers.Perf4jPackage, "DefaultProvider"), "Default"), f.Init)

	v, err := syntax.Eval(newFrame(), f.Init)
	require.NoError(t, err)
	assert.Same(t, defaultValue, v)
}

func TestAddProviderAccessors(t *testing.T) {
	rec := editor.NewRecorder("Service", "SetPerf4jProvider")
	require.NoError(t, newHandler(t).AddProviderAccessors(rec))

	require.Len(t, rec.Requests(), 2)
	methods := rec.InjectedMethods()
	require.Len(t, methods, 2)
	setter, getter := methods[0], methods[1]

	assert.Equal(t, "SetPerf4jProvider", setter.Name)
	assert.True(t, setter.IsPublic())
	assert.Empty(t, setter.Results)
	assert.Equal(t, []syntax.Arg{syntax.NewArg(perf4j.ProviderType, "provider")}, setter.Args)

	assert.Equal(t, "Perf4jProvider", getter.Name)
	assert.True(t, getter.IsPublic())
	assert.Equal(t, []syntax.TypeRef{perf4j.ProviderType}, getter.Results)
	assert.Empty(t, getter.Args)

	assert.Contains(t, setter.Doc, "selects perf4j.Default()")
	assert.Contains(t, getter.Doc, "It is nil for a value whose fields\nhave not been initialized")

	frame := newFrame()
	// null falls back to the default provider
	_, err := syntax.Run(frame, setter, nil)
	require.NoError(t, err)
	assert.Same(t, defaultValue, frame.Fields["perf4jProvider"])

	// so does a nil pointer of a provider type held in the interface
	frame.Fields["perf4jProvider"] = nil
	var typedNil *struct{ name string }
	_, err = syntax.Run(frame, setter, typedNil)
	require.NoError(t, err)
	assert.Same(t, defaultValue, frame.Fields["perf4jProvider"])
	assert.Equal(t, syntax.IsNull(syntax.Name("provider")), setter.Body.Stmts[0].(syntax.IfStmt).Cond)

	custom := &struct{ name string }{"custom"}
	_, err = syntax.Run(frame, setter, custom)
	require.NoError(t, err)
	assert.Same(t, custom, frame.Fields["perf4jProvider"])

	// the getter returns the field unchanged
	v, err := syntax.Run(frame, getter)
	require.NoError(t, err)
	assert.Same(t, custom, v)
	frame.Fields["perf4jProvider"] = nil
	v, err = syntax.Run(frame, getter)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAddContributionMethods(t *testing.T) {
	rec := editor.NewRecorder("Service")
	d := &mockDelegator{}
	d.On("DelegateMethods", rec, perf4j.Methods, syntax.Field("perf4jProvider")).Return(nil).Once()

	require.NoError(t, newHandler(t, WithDelegator(d)).AddContributionMethods(rec))
	d.AssertExpectations(t)
	d.AssertNumberOfCalls(t, "DelegateMethods", 1)
	assert.Empty(t, rec.Requests())
}

func TestHandle(t *testing.T) {
	rec := editor.NewRecorder("Service")
	require.NoError(t, newHandler(t).Handle(rec))

	var names []string
	for _, r := range rec.Requests() {
		if r.Field != nil {
			names = append(names, "field "+r.Field.Name)
		} else {
			names = append(names, r.Method.Name)
		}
	}
	assert.Equal(t, []string{
		"field perf4jProvider",
		"SetPerf4jProvider",
		"Perf4jProvider",
		"WithStopwatch",
		"WithStopwatchTagged",
	}, names)

	tagged := rec.InjectedMethods()[3]
	frame := newFrame()
	frame.Fields["perf4jProvider"] = "provider"
	var calls []string
	frame.Invoke = func(recv interface{}, method string, args []interface{}) (interface{}, error) {
		calls = append(calls, method)
		assert.Equal(t, "provider", recv)
		assert.Equal(t, []interface{}{"tag", nil}, args)
		return nil, nil
	}
	_, err := syntax.Run(frame, tagged, "tag", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"WithStopwatchTagged"}, calls)
}

func TestHandle_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	ed := &mockEditor{}
	ed.On("AddField", mock.Anything).Return(nil).Once()
	ed.On("InjectMethod", mock.Anything).Return(boom).Once()
	d := &mockDelegator{}

	h := NewPerf4jAwareHandler[mockType, editor.RecordedMethod](WithDelegator(d))
	err := h.Handle(mockType{ed: ed})
	assert.Same(t, boom, err)
	ed.AssertExpectations(t)
	ed.AssertNumberOfCalls(t, "InjectMethod", 1)
	d.AssertNotCalled(t, "DelegateMethods", mock.Anything, mock.Anything, mock.Anything)
}

func TestForwardingMethod(t *testing.T) {
	variadic := syntax.MethodDescriptor{
		Name: "Logf",
		Params: []syntax.Arg{
			syntax.NewArg(syntax.Basic("string"), "format"),
			syntax.NewArg(syntax.SliceOf(syntax.Basic("any")), "args"),
		},
		Variadic: true,
	}
	m := ForwardingMethod(variadic, syntax.Field("target"))
	assert.True(t, m.IsPublic())
	assert.True(t, m.Variadic)
	assert.Empty(t, m.Results)
	require.Len(t, m.Body.Stmts, 1)
	do, ok := m.Body.Stmts[0].(syntax.ExprStmt)
	require.True(t, ok)
	call := do.X.(syntax.CallExpr)
	assert.True(t, call.Spread)
	assert.Equal(t, syntax.Field("target"), call.Receiver)
	assert.Equal(t, []syntax.Expr{syntax.Name("format"), syntax.Name("args")}, call.Args)

	withResult := ForwardingMethod(perf4j.Methods[0], syntax.Field("target"))
	ret, ok := withResult.Body.Stmts[0].(syntax.ReturnStmt)
	require.True(t, ok)
	assert.False(t, ret.Value.(syntax.CallExpr).Spread)
}

func TestNewProviderAwareHandler_Invalid(t *testing.T) {
	c := providers.Perf4j()
	c.FieldName = ""
	_, err := NewProviderAwareHandler[*editor.Recorder, editor.RecordedMethod](c)
	assert.Error(t, err)
}

func loadContext(t *testing.T, src string) *processor.Context {
	dir := t.TempDir()
	fn := filepath.Join(dir, "demo.go")
	require.NoError(t, os.WriteFile(fn, []byte(src), 0666))
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, fn, src, goparser.ParseComments)
	require.NoError(t, err)
	ctx, err := processor.NewContext(&packages.Package{
		Name:    f.Name.Name,
		PkgPath: "example.com/demo",
		Fset:    fset,
		Syntax:  []*ast.File{f},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return ctx
}

func TestProcessor(t *testing.T) {
	ctx := loadContext(t, `package demo

// @gombok.Perf4jAware
type Service struct{}

// Plain is left alone.
type Plain struct{}
`)
	out := processor.NewMemoryOutput()
	proc := Processor(providers.NewRegistry(), zaptest.NewLogger(t))
	require.NoError(t, proc(ctx, out.Factory()))
	assert.Equal(t, []string{"example.com/demo/demo.go", "example.com/demo/demo_gombok.go"}, out.Paths())

	src, _ := out.Get("example.com/demo/demo.go")
	assert.Contains(t, string(src), "perf4jProvider perf4j.Provider")
	gen, _ := out.Get("example.com/demo/demo_gombok.go")
	for _, name := range []string{"InitFields", "SetPerf4jProvider", "Perf4jProvider", "WithStopwatch", "WithStopwatchTagged"} {
		assert.Contains(t, string(gen), "func (s *Service) "+name+"(")
	}
	assert.Contains(t, string(gen), "if gombokIsNil(provider) {")
	assert.Contains(t, string(gen), "// SetPerf4jProvider sets the perf4j provider. A nil provider, or a nil pointer of a\n")
	assert.False(t, strings.Contains(string(gen), "Plain"))
}

func TestProcessor_NothingAnnotated(t *testing.T) {
	ctx := loadContext(t, "package demo\n\ntype Service struct{}\n")
	out := processor.NewMemoryOutput()
	require.NoError(t, Processor(providers.NewRegistry(), nil)(ctx, out.Factory()))
	assert.Empty(t, out.Paths())
}

func TestBindings(t *testing.T) {
	reg := providers.NewRegistry()
	require.NoError(t, reg.Register(providers.Constants{
		Name:                "metrics",
		ProviderType:        syntax.Named("example.com/metrics", "Sink"),
		DefaultProviderType: syntax.Named("example.com/metrics", "Discard"),
		Factory:             "New",
		FieldName:           "metricsProvider",
		GetterName:          "MetricsProvider",
		SetterName:          "SetMetricsProvider",
		ParamName:           "provider",
	}))
	ctx := loadContext(t, `package demo

// @gombok.Perf4jAware
// @gombok.ProviderAware{Provider: "metrics"}
type Service struct{}

// @gombok.ProviderAware("perf4j")
type Other struct{}
`)
	bindings, err := Bindings(ctx, reg)
	require.NoError(t, err)
	require.Len(t, bindings, 3)
	assert.Equal(t, "Service", bindings[0].Element.Name())
	assert.Equal(t, "perf4j", bindings[0].Constants.Name)
	assert.Equal(t, "metrics", bindings[1].Constants.Name)
	assert.Equal(t, "Other", bindings[2].Element.Name())
	assert.Equal(t, "perf4j", bindings[2].Constants.Name)
}

func TestBindings_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{"not a struct", "package demo\n\n// @gombok.Perf4jAware\ntype Name string\n", "can only be used on struct types"},
		{"unknown provider", "package demo\n\n// @gombok.ProviderAware(\"nope\")\ntype S struct{}\n", "unknown provider"},
		{"missing provider", "package demo\n\n// @gombok.ProviderAware\ntype S struct{}\n", "requires a Provider"},
		{"wrong kind", "package demo\n\n// @gombok.ProviderAware(42)\ntype S struct{}\n", "must be a string"},
		{"unknown annotation", "package demo\n\n// @gombok.Frobnicate\ntype S struct{}\n", "unknown annotation @gombok.Frobnicate"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := loadContext(t, c.src)
			_, err := Bindings(ctx, providers.NewRegistry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.msg)
			var ewp *processor.ErrorWithPosition
			require.ErrorAs(t, err, &ewp)
			assert.Equal(t, 3, ewp.Pos().Line)
		})
	}
}

func TestPlan(t *testing.T) {
	ctx := loadContext(t, `package demo

// @gombok.Perf4jAware
type Service struct{}

func (s *Service) Perf4jProvider() any { return nil }
`)
	recorders, err := Plan(ctx, providers.NewRegistry(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, recorders, 1)
	rec := recorders[0]
	assert.Equal(t, "Service", rec.Name())
	assert.Equal(t, []editor.RecordedMethod{"Perf4jProvider"}, rec.Methods())
	// the recorder keeps every request, even for methods that exist
	assert.Len(t, rec.Requests(), 5)
	assert.True(t, strings.HasPrefix(rec.String(), "Service:\n"))
}
