// Package translator implements the stroke-by-stroke translation state
// machine: a list of in-flight trie hypotheses (possibleBranches) and a
// stack of undo frames, mirroring the teacher's arena-of-indices discipline
// in internal/mmr by addressing dictionary nodes through NodeRef rather than
// holding pointers across mutation.
package translator

import (
	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/dictionary"
)

// branch is one live hypothesis: a trie node reached by the strokes typed
// so far, and its depth (cached so the tail-retraction walk doesn't need to
// re-derive it by climbing parents each time).
type branch struct {
	node  dictionary.NodeRef
	depth int
}

// WriteItem is a rendered output: either a dictionary value (subject to the
// translator's own leading-space convention) or literal fallback text for an
// unmatched chord (no leading space, no dictionary behavior).
type WriteItem struct {
	Value   *dictionary.Value
	Literal string
}

func (w WriteItem) isZero() bool { return w.Value == nil && w.Literal == "" }

// Translation is the result of one Translate call: optionally something to
// write, and a list of previously-written items to retract first, given in
// the order they must be retracted (most recently visible first).
type Translation struct {
	Write  *WriteItem
	Revert []WriteItem
}

// trimmedEntry records a branch pruned from possibleBranches, along with the
// index it occupied, so Undo can reinsert it there.
type trimmedEntry struct {
	node  dictionary.NodeRef
	index int
}

// UndoFrame is the record of one Translate call's mutations, sufficient to
// reverse them.
type UndoFrame struct {
	Translation Translation
	Trimmed     []trimmedEntry
	Replaced    []trimmedEntry
}

// Translator holds the live trie hypotheses and undo history for one
// steno session. It is not safe for concurrent use; callers serialize
// strokes through it (see internal/queue).
type Translator struct {
	dict     *dictionary.Dictionary
	branches []branch
	undoList []UndoFrame
}

// New returns a Translator with no live hypotheses, reading from dict.
func New(dict *dictionary.Dictionary) *Translator {
	return &Translator{dict: dict}
}

// Translate folds one stroke into the translator's state and returns what
// it caused.
//
// The algorithm, in order:
//
//  1. Scan possibleBranches front to back. For each entry, look up c among
//     its node's children. If found, replace the entry in place with the
//     child; if that child carries a value, select it as the output branch
//     and stop scanning (later entries are left untouched, to be retracted
//     below). If not found, remove the entry (recording it in Trimmed) and
//     continue scanning at the same index.
//  2. If an output branch was selected: every entry still in the list after
//     it represents text that is now superseded. Retract the last entry's
//     value (if any), then repeatedly pop the tail; after each pop, walk up
//     from the new last entry by (its depth − the popped entry's depth)
//     ancestors and retract that ancestor's value if it has one. Stop once
//     the output branch is the last entry.
//  3. Otherwise, if the dictionary root has a child along c, append it as a
//     new branch (depth 1); if it carries a value, that's the write.
//  4. Otherwise, the chord matches nothing: the write is the chord's own
//     short-form text, and no new branch is appended (step 1's pruning and
//     extension still stand).
func (t *Translator) Translate(c chord.Chord) Translation {
	var frame UndoFrame
	outputIdx := -1

	i := 0
	for i < len(t.branches) {
		br := t.branches[i]
		child, ok := t.dict.Child(br.node, c)
		if !ok {
			frame.Trimmed = append(frame.Trimmed, trimmedEntry{node: br.node, index: i})
			t.branches = append(t.branches[:i], t.branches[i+1:]...)
			continue
		}
		depth := t.dict.Depth(child)
		t.branches[i] = branch{node: child, depth: depth}
		if t.dict.Value(child) != nil {
			outputIdx = i
			break
		}
		i++
	}

	var translation Translation

	switch {
	case outputIdx >= 0:
		outNode := t.branches[outputIdx].node
		translation.Write = &WriteItem{Value: t.dict.Value(outNode)}
		translation.Revert = t.retractTail(outputIdx, &frame)

	default:
		if child, ok := t.dict.Child(dictionary.RootRef, c); ok {
			depth := t.dict.Depth(child)
			t.branches = append(t.branches, branch{node: child, depth: depth})
			if v := t.dict.Value(child); v != nil {
				translation.Write = &WriteItem{Value: v}
			}
		} else {
			translation.Write = &WriteItem{Literal: c.Format(0)}
		}
	}

	frame.Translation = translation
	t.undoList = append(t.undoList, frame)
	return translation
}

// retractTail pops every branch after outputIdx, building the list of
// values that must be retracted as it goes, and records each popped branch
// (with its original index) into frame.Replaced.
func (t *Translator) retractTail(outputIdx int, frame *UndoFrame) []WriteItem {
	var revert []WriteItem

	if outputIdx >= len(t.branches)-1 {
		return revert
	}

	last := t.branches[len(t.branches)-1]
	if v := t.dict.Value(last.node); v != nil {
		revert = append(revert, WriteItem{Value: v})
	}
	prevDepth := last.depth

	for len(t.branches)-1 > outputIdx {
		popped := t.branches[len(t.branches)-1]
		t.branches = t.branches[:len(t.branches)-1]
		frame.Replaced = append(frame.Replaced, trimmedEntry{node: popped.node, index: len(t.branches)})

		newLast := t.branches[len(t.branches)-1]
		diff := newLast.depth - prevDepth
		anc := newLast.node
		for k := 0; k < diff; k++ {
			p, ok := t.dict.Parent(anc)
			if !ok {
				break
			}
			anc = p
		}
		if v := t.dict.Value(anc); v != nil {
			revert = append(revert, WriteItem{Value: v})
		}
		prevDepth = newLast.depth
	}

	return revert
}

// undoState reverses the mutations one Translate call made to
// possibleBranches, without touching undoList itself. Callers pop the frame
// from undoList before calling this.
func (t *Translator) undoState(frame UndoFrame) {
	for idx := range t.branches {
		p, ok := t.dict.Parent(t.branches[idx].node)
		if !ok {
			// The root has no parent; a branch can only be the root if it
			// was just appended fresh (handled by the trailing pop below).
			continue
		}
		t.branches[idx] = branch{node: p, depth: t.dict.Depth(p)}
	}

	for i := len(frame.Trimmed) - 1; i >= 0; i-- {
		te := frame.Trimmed[i]
		restored := branch{node: te.node, depth: t.dict.Depth(te.node)}
		if te.index >= len(t.branches) {
			t.branches = append(t.branches, restored)
			continue
		}
		t.branches = append(t.branches, branch{})
		copy(t.branches[te.index+1:], t.branches[te.index:])
		t.branches[te.index] = restored
	}

	if len(t.branches) > 0 {
		last := t.branches[len(t.branches)-1]
		if _, ok := t.dict.Parent(last.node); !ok && last.node == dictionary.RootRef {
			t.branches = t.branches[:len(t.branches)-1]
		}
	}
}

// Undo pops the most recent frame and reverses it, for hosts that expose a
// generic "undo last stroke" action outside of the dictionary's own =undo
// entries. It reports false if there is nothing to undo.
func (t *Translator) Undo() (Translation, bool) {
	if len(t.undoList) == 0 {
		return Translation{}, false
	}
	frame := t.undoList[len(t.undoList)-1]
	t.undoList = t.undoList[:len(t.undoList)-1]
	t.undoState(frame)
	return frame.Translation, true
}

// Depth reports how many live hypotheses the translator is currently
// tracking. Exposed for tests asserting invariants about possibleBranches.
func (t *Translator) Depth() int { return len(t.branches) }

// UndoListLen reports how many frames are available to Undo.
func (t *Translator) UndoListLen() int { return len(t.undoList) }

// isSingleUndoAtom reports whether v's entire content is the bare =undo
// directive, the only shape the writer treats specially.
func isSingleUndoAtom(v *dictionary.Value) bool {
	return v != nil && len(v.Atoms) == 1 && v.Atoms[0].Kind == dictionary.Undo
}
