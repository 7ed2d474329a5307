// Package pipeline recovers schema-conformant recipe documents from the free-form
// text a language model returns.
//
// The stages run in a fixed order, each a pure function over text or a parsed
// tree:
//
//	Extract -> Normalize -> NormalizeQuantities -> Repair -> Validate
//
// Every failure is an *Error whose Kind is one of the Err* sentinels.
package pipeline

// Options tunes Process.
type Options struct {
	ZeroDenominator ZeroDenominatorPolicy
}

// Process runs all stages over raw model output and returns the validated
// document. authorID becomes the document's author regardless of what the
// text contains. Errors carry raw as their Raw field.
func Process(raw, authorID string, opts Options) (*Document, error) {
	text, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	text = Normalize(text)

	text, err = NormalizeQuantities(text, opts.ZeroDenominator)
	if err != nil {
		return nil, withRaw(err, raw)
	}

	tree, err := Repair(text)
	if err != nil {
		return nil, withRaw(err, raw)
	}

	doc, err := Validate(tree, authorID)
	if err != nil {
		return nil, withRaw(err, raw)
	}
	return doc, nil
}

func withRaw(err error, raw string) error {
	if perr, ok := AsError(err); ok {
		perr.Raw = raw
	}
	return err
}
