package translator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/dictionary"
)

// retractByte is the control byte the writer emits, once per retracted
// character, to ask the output sink to delete the character before the
// cursor. The sink is free to translate it into whatever backspace sequence
// its transport needs.
const retractByte = 0x16

// Writer renders Translation values into the byte stream an OutputSink
// consumes, tracking the small amount of cross-stroke state the dictionary
// mini-language needs: pending capitalization directives, caps-lock mode,
// and whether the last word glued onto its neighbor.
type Writer struct {
	t *Translator

	pendingCapNext   bool
	pendingUpperWord bool
	capsLock         bool
	suppressLeading  bool
	lastWasGlue      bool
	lastWasUndo      bool
}

// NewWriter returns a Writer driving t.
func NewWriter(t *Translator) *Writer {
	return &Writer{t: t}
}

// Stroke folds one chord into the translator and returns the bytes to send
// to the output sink.
func (w *Writer) Stroke(c chord.Chord) string {
	tr := w.t.Translate(c)
	w.lastWasUndo = tr.Write != nil && isSingleUndoAtom(tr.Write.Value)
	if w.lastWasUndo {
		return w.handleUndo()
	}
	return w.render(tr)
}

// LastWasUndo reports whether the most recent call to Stroke was an =undo
// entry, for callers that log strokes and want to distinguish an undo from
// an ordinary translation.
func (w *Writer) LastWasUndo() bool {
	return w.lastWasUndo
}

func (w *Writer) render(tr Translation) string {
	var b strings.Builder
	for _, item := range tr.Revert {
		b.WriteString(w.retractBytes(item))
	}
	if tr.Write != nil && !tr.Write.isZero() {
		b.WriteString(w.writeBytes(*tr.Write))
	}
	return b.String()
}

func (w *Writer) handleUndo() string {
	selfFrame := w.t.undoList[len(w.t.undoList)-1]
	w.t.undoList = w.t.undoList[:len(w.t.undoList)-1]
	w.t.undoState(selfFrame)

	if len(w.t.undoList) == 0 {
		return ""
	}
	target := w.t.undoList[len(w.t.undoList)-1]
	w.t.undoList = w.t.undoList[:len(w.t.undoList)-1]
	w.t.undoState(target)

	var b strings.Builder
	if target.Translation.Write != nil && !target.Translation.Write.isZero() {
		b.WriteString(w.retractBytes(*target.Translation.Write))
	}
	for i := len(target.Translation.Revert) - 1; i >= 0; i-- {
		b.WriteString(w.writeBytes(target.Translation.Revert[i]))
	}
	return b.String()
}

func (w *Writer) retractBytes(item WriteItem) string {
	switch {
	case item.Value != nil:
		text, _, _, _ := renderAtoms(item.Value)
		if text == "" {
			return ""
		}
		n := utf8.RuneCountInString(text)
		return strings.Repeat(string(rune(retractByte)), n+1)
	case item.Literal != "":
		n := utf8.RuneCountInString(item.Literal)
		return strings.Repeat(string(rune(retractByte)), n)
	default:
		return ""
	}
}

func (w *Writer) writeBytes(item WriteItem) string {
	if item.Literal != "" {
		w.lastWasGlue = false
		return item.Literal
	}
	if item.Value == nil {
		return ""
	}

	text, attachLeading, attachTrailing, glueLeading := renderAtoms(item.Value)
	text = w.applyCase(item.Value, text)
	if text == "" {
		// A value made only of directive atoms (capitalize, caps-lock,
		// macros) writes no text of its own; its directives still took
		// effect above, against the next word that does write text.
		return ""
	}

	leading := " "
	if w.suppressLeading || attachLeading || (glueLeading && w.lastWasGlue) {
		leading = ""
	}
	w.suppressLeading = attachTrailing
	w.lastWasGlue = isGlueValue(item.Value)

	return leading + text
}

// applyCase consumes any pending capitalize/uppercase directive against
// text, and updates w's pending state from directives present in v.
func (w *Writer) applyCase(v *dictionary.Value, text string) string {
	for _, a := range v.Atoms {
		switch a.Kind {
		case dictionary.CapitalizeNext:
			w.pendingCapNext = true
		case dictionary.UppercaseNextWord:
			w.pendingUpperWord = true
		case dictionary.CapsLockMode:
			w.capsLock = !w.capsLock
		}
	}

	if text == "" {
		return text
	}

	if w.capsLock {
		text = strings.ToUpper(text)
	}
	if w.pendingUpperWord {
		text = strings.ToUpper(text)
		w.pendingUpperWord = false
	} else if w.pendingCapNext {
		text = capitalizeFirst(text)
		w.pendingCapNext = false
	}
	return text
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}

func isGlueValue(v *dictionary.Value) bool {
	if len(v.Atoms) == 0 {
		return false
	}
	return v.Atoms[len(v.Atoms)-1].Kind == dictionary.Glue
}

// renderAtoms concatenates the literal text a value's atoms contribute.
// attachLeading/attachTrailing report an explicit attach affix at the
// first/last atom, which unconditionally suppresses the adjoining space.
// glueLeading reports the first atom is Glue, which only suppresses the
// leading space when the previous word was also Glue.
func renderAtoms(v *dictionary.Value) (text string, attachLeading, attachTrailing, glueLeading bool) {
	var b strings.Builder
	for idx, a := range v.Atoms {
		switch a.Kind {
		case dictionary.Raw, dictionary.CarryCapitalization:
			b.WriteString(v.Text(a))
		case dictionary.AttachPrefix:
			if idx == 0 {
				attachLeading = true
			}
			b.WriteString(v.Text(a))
		case dictionary.AttachSuffix:
			b.WriteString(v.Text(a))
			if idx == len(v.Atoms)-1 {
				attachTrailing = true
			}
		case dictionary.AttachInfix:
			if idx == 0 {
				attachLeading = true
			}
			b.WriteString(v.Text(a))
			if idx == len(v.Atoms)-1 {
				attachTrailing = true
			}
		case dictionary.Glue:
			if idx == 0 {
				glueLeading = true
			}
			b.WriteString(v.Text(a))
		case dictionary.Currency:
			b.WriteString(a.CurrencyPrefix)
			b.WriteString(a.CurrencySuffix)
		case dictionary.Conditional:
			b.WriteString(renderConditional(a, b.String()))
		}
	}
	return b.String(), attachLeading, attachTrailing, glueLeading
}

// renderConditional matches a.Regex against the text already rendered
// earlier in the same value, and expands the chosen branch's \N
// backreferences against the match's submatches.
func renderConditional(a dictionary.Atom, priorText string) string {
	re, err := regexp.Compile(a.Regex)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatchIndex(priorText)
	branch := a.IfFalse
	if m != nil {
		branch = a.IfTrue
	}
	return expandBackrefs(branch, priorText, m)
}

// expandBackrefs substitutes \1..\9 in tmpl with the corresponding
// submatch captured in m against subject.
func expandBackrefs(tmpl, subject string, m []int) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '\\' || i+1 >= len(tmpl) {
			b.WriteByte(tmpl[i])
			continue
		}
		n, err := strconv.Atoi(string(tmpl[i+1]))
		if err != nil {
			b.WriteByte(tmpl[i])
			continue
		}
		i++
		if m != nil && 2*n+1 < len(m) && m[2*n] >= 0 {
			b.WriteString(subject[m[2*n]:m[2*n+1]])
		}
	}
	return b.String()
}
