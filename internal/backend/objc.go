package backend

import "fmt"

// ObjCGenerator is the `--rt objc` target: it runs the C backend and
// concatenates all of its outputs into one objc_bridge.h, preceded by an
// #import of ObjCIncludePath when that option is set. It emits no
// Objective-C interface declarations of its own.
type ObjCGenerator struct{}

func (g *ObjCGenerator) Name() Target { return TargetObjC }

func (g *ObjCGenerator) Generate(in Input) ([]Output, error) {
	cOuts, err := (&CGenerator{}).Generate(in)
	if err != nil {
		return nil, err
	}

	var header string
	if in.Options.ObjCIncludePath != "" {
		header = fmt.Sprintf("#import %q\n\n", in.Options.ObjCIncludePath)
	}
	for _, o := range cOuts {
		header += o.Content
	}
	return []Output{{Name: "objc_bridge.h", Content: header}}, nil
}
