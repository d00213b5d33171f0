package providers

import "github.com/jhump/gombok/syntax"

// Perf4jPackage is the import path of the perf4j runtime package.
const Perf4jPackage = "github.com/jhump/gombok/perf4j"

// Perf4j returns the constants for the built-in perf4j provider.
func Perf4j() Constants {
	stopwatchFunc := syntax.FuncOf(
		[]syntax.TypeRef{syntax.PointerTo(syntax.Named(Perf4jPackage, "StopWatch"))},
		[]syntax.TypeRef{syntax.Basic("error")},
		false)
	return Constants{
		Name:                "perf4j",
		Annotation:          "Perf4jAware",
		ProviderType:        syntax.Named(Perf4jPackage, "Provider"),
		DefaultProviderType: syntax.Named(Perf4jPackage, "DefaultProvider"),
		Factory:             "Default",
		FieldName:           "perf4jProvider",
		GetterName:          "Perf4jProvider",
		SetterName:          "SetPerf4jProvider",
		ParamName:           "provider",
		Methods: []syntax.MethodDescriptor{
			{
				Name:    "WithStopwatch",
				Params:  []syntax.Arg{syntax.NewArg(stopwatchFunc, "fn")},
				Results: []syntax.TypeRef{syntax.Basic("error")},
			},
			{
				Name: "WithStopwatchTagged",
				Params: []syntax.Arg{
					syntax.NewArg(syntax.Basic("string"), "tag"),
					syntax.NewArg(stopwatchFunc, "fn"),
				},
				Results: []syntax.TypeRef{syntax.Basic("error")},
			},
		},
	}
}
