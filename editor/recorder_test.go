package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhump/gombok/syntax"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder("Service", "Close")
	assert.Equal(t, "Service", r.Name())
	assert.Equal(t, []RecordedMethod{"Close"}, r.Methods())
	assert.Equal(t, "Close", r.Methods()[0].Name())

	f := syntax.NewFieldDecl(syntax.Basic("int"), "count")
	m := syntax.NewMethodDecl(syntax.Basic("int"), "Count").
		MakePublic().
		WithStatement(syntax.Return(syntax.Field("count")))

	ed := r.Editor()
	require.NoError(t, ed.AddField(f))
	require.NoError(t, ed.InjectMethod(m))
	// duplicates are recorded, too
	require.NoError(t, ed.InjectMethod(m))

	reqs := r.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, &f, reqs[0].Field)
	assert.Nil(t, reqs[0].Method)
	assert.Equal(t, []syntax.FieldDecl{f}, r.Fields())
	assert.Equal(t, []syntax.MethodDecl{m, m}, r.InjectedMethods())

	// injected methods are not reported as existing
	assert.Len(t, r.Methods(), 1)

	want := "Service:\n" +
		"    private int count\n" +
		"    public int Count() {\n" +
		"        return this.count;\n" +
		"    }\n" +
		"    public int Count() {\n" +
		"        return this.count;\n" +
		"    }\n"
	assert.Equal(t, want, r.String())
}
