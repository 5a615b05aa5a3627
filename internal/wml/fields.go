package wml

import "fmt"

// Field instruction synthesis. The instruction strings are a
// compatibility contract with the downstream field evaluator and must
// not drift:
//
//	STYLEREF \s "Heading 1" \n          nearest enclosing heading number
//	SEQ Figure \* ARABIC \s 1           continue counter in current scope
//	SEQ Figure \* ARABIC \r 1 \s 1      restart counter at 1
//	 REF _Ref123456789 \h               cross-reference with hyperlink

// StyleRefInstruction resolves to the nearest enclosing heading's
// number. Appendix scope uses the appendix heading style, which the
// evaluator formats as a letter.
func StyleRefInstruction(headingStyle string) string {
	return fmt.Sprintf("STYLEREF \\s %q \\n", headingStyle)
}

// SeqInstruction is the auto-incrementing counter keyed by label.
// restart resets it to 1 at a scope boundary.
func SeqInstruction(label string, restart bool) string {
	if restart {
		return fmt.Sprintf("SEQ %s \\* ARABIC \\r 1 \\s 1", label)
	}
	return fmt.Sprintf("SEQ %s \\* ARABIC \\s 1", label)
}

// RefInstruction points at a named bookmark; \h makes the rendered
// reference a live hyperlink.
func RefInstruction(bookmark string) string {
	return fmt.Sprintf(" REF %s \\h ", bookmark)
}

// AppendField appends a compact field (begin, instruction, end) as one
// run. Caption numbering fields carry no cached result; the evaluator
// fills them in.
func AppendField(p *Paragraph, instruction string) *Run {
	r := &Run{Children: []RunChild{
		&FieldChar{Type: FieldBegin},
		&InstrText{Value: instruction},
		&FieldChar{Type: FieldEnd},
	}}
	p.AppendRun(r)
	return r
}

// AppendFieldWithResult appends a five-run field chain: begin,
// instruction, separator, placeholder result, end. The placeholder is
// what renders until the evaluator updates fields.
func AppendFieldWithResult(p *Paragraph, instruction, placeholder string) {
	p.AppendRun(&Run{Children: []RunChild{&FieldChar{Type: FieldBegin}}})
	p.AppendRun(&Run{Children: []RunChild{&InstrText{Value: instruction}}})
	p.AppendRun(&Run{Children: []RunChild{&FieldChar{Type: FieldSeparate}}})
	p.AppendRun(&Run{Children: []RunChild{&Text{Value: placeholder}}})
	p.AppendRun(&Run{Children: []RunChild{&FieldChar{Type: FieldEnd}}})
}

// AppendRefField appends a leading space plus a complete REF field
// chain targeting the bookmark.
func AppendRefField(p *Paragraph, bookmark string) {
	p.AppendRun(&Run{Children: []RunChild{&Text{Value: " ", PreserveSpace: true}}})
	AppendFieldWithResult(p, RefInstruction(bookmark), "1-1")
}

// instruction returns the instruction text of a run, or "".
func (r *Run) instruction() string {
	for _, c := range r.Children {
		if it, ok := c.(*InstrText); ok {
			return it.Value
		}
	}
	return ""
}

// fieldChar returns the run's field character type, or "".
func (r *Run) fieldChar() FieldCharType {
	for _, c := range r.Children {
		if fc, ok := c.(*FieldChar); ok {
			return fc.Type
		}
	}
	return ""
}
