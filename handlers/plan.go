package handlers

import (
	"go.uber.org/zap"

	"github.com/jhump/gombok/editor"
	"github.com/jhump/gombok/goedit"
	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/providers"
)

// Plan runs the handlers for the annotated types of a package against
// recorders instead of the Go editor, so nothing is written. There is one
// recorder per annotated type, in source order, seeded with the type's
// hand-written methods.
func Plan(ctx *processor.Context, registry *providers.Registry, logger *zap.Logger) ([]*editor.Recorder, error) {
	bindings, err := Bindings(ctx, registry)
	if err != nil {
		return nil, err
	}
	pe := goedit.NewPackageEditor(ctx)
	byName := map[string]*editor.Recorder{}
	var recorders []*editor.Recorder
	for _, b := range bindings {
		rec, ok := byName[b.Element.Name()]
		if !ok {
			typ, err := pe.TypeFor(b.Element)
			if err != nil {
				return nil, err
			}
			var existing []string
			for _, m := range typ.Methods() {
				existing = append(existing, m.Name())
			}
			rec = editor.NewRecorder(typ.Name(), existing...)
			byName[typ.Name()] = rec
			recorders = append(recorders, rec)
		}
		h, err := NewProviderAwareHandler[*editor.Recorder, editor.RecordedMethod](b.Constants, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := h.Handle(rec); err != nil {
			return nil, err
		}
	}
	return recorders, nil
}
