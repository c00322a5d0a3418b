package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// typeError is a unification failure. kind is one of the Err* sentinels.
type typeError struct {
	kind error
	msg  string
}

func (e *typeError) Error() string { return e.msg }

func conflict(format string, args ...any) *typeError {
	return &typeError{kind: ErrTypeConflict, msg: fmt.Sprintf(format, args...)}
}

// unify makes a and b equal, binding variables and extending open rows.
// a is the actual type and b the expected one; messages are phrased that way.
func (e *typeEnv) unify(a, b Type) *typeError {
	a, b = prune(a), prune(b)
	if a == b {
		return nil
	}
	if a == TAny || b == TAny {
		return nil
	}

	if va, ok := a.(*TypeVar); ok {
		if vb, ok := b.(*TypeVar); ok {
			va.parent = vb
			if vb.name == "" {
				vb.name = va.name
			}
			return nil
		}
		return bindVar(va, b)
	}
	if vb, ok := b.(*TypeVar); ok {
		return bindVar(vb, a)
	}

	switch a := a.(type) {
	case Prim:
		if _, ok := b.(*TagLit); ok && a == TString {
			return nil
		}
		if bp, ok := b.(Prim); ok && bp == a {
			return nil
		}
	case *TagLit:
		switch b := b.(type) {
		case *TagLit:
			if a.Tag == b.Tag {
				return nil
			}
		case Prim:
			if b == TString {
				return nil
			}
		}
	case *List:
		if bl, ok := b.(*List); ok {
			return e.unify(a.Elem, bl.Elem)
		}
	case *Record:
		if br, ok := b.(*Record); ok {
			return e.unifyRows(a.Row, br.Row)
		}
	case *Union:
		if bu, ok := b.(*Union); ok {
			return e.unifyUnions(a, bu)
		}
	case *Func:
		if bf, ok := b.(*Func); ok {
			if len(a.Params) != len(bf.Params) {
				return &typeError{
					kind: ErrArityOrSignatureMismatch,
					msg:  fmt.Sprintf("function arity mismatch: expected %d arguments, got %d", len(bf.Params), len(a.Params)),
				}
			}
			for i := range a.Params {
				if err := e.unify(a.Params[i], bf.Params[i]); err != nil {
					return err
				}
			}
			return e.unify(a.Result, bf.Result)
		}
	case *ViewFunc:
		if bv, ok := b.(*ViewFunc); ok {
			return e.unify(a.Input, bv.Input)
		}
	}
	return conflict("type mismatch: expected %s, got %s", b, a)
}

func bindVar(v *TypeVar, t Type) *typeError {
	if occurs(v, t) {
		return conflict("infinite type: %s occurs in %s", v, t)
	}
	v.bound = t
	return nil
}

func occurs(v *TypeVar, t Type) bool {
	switch t := prune(t).(type) {
	case *TypeVar:
		return t == v
	case *List:
		return occurs(v, t.Elem)
	case *Record:
		return occursInRow(v, t.Row)
	case *Union:
		for _, r := range t.Variants {
			if occursInRow(v, r) {
				return true
			}
		}
	case *Func:
		for _, p := range t.Params {
			if occurs(v, p) {
				return true
			}
		}
		return occurs(v, t.Result)
	case *ViewFunc:
		return occurs(v, t.Input)
	}
	return false
}

func occursInRow(v *TypeVar, r *Row) bool {
	fields, _ := gatherFields(r)
	for _, ft := range fields {
		if occurs(v, ft) {
			return true
		}
	}
	return false
}

// rowOccurs reports whether row variable rv appears inside r or its field types.
func rowOccurs(rv *Row, r *Row) bool {
	for {
		r = r.find()
		if r == rv {
			return true
		}
		if r.fields == nil {
			return false
		}
		for _, ft := range r.fields {
			if rowOccursInType(rv, ft) {
				return true
			}
		}
		r = r.tail
	}
}

func rowOccursInType(rv *Row, t Type) bool {
	switch t := prune(t).(type) {
	case *List:
		return rowOccursInType(rv, t.Elem)
	case *Record:
		return rowOccurs(rv, t.Row)
	case *Union:
		for _, r := range t.Variants {
			if rowOccurs(rv, r) {
				return true
			}
		}
	case *Func:
		for _, p := range t.Params {
			if rowOccursInType(rv, p) {
				return true
			}
		}
		return rowOccursInType(rv, t.Result)
	case *ViewFunc:
		return rowOccursInType(rv, t.Input)
	}
	return false
}

func (e *typeEnv) unifyRows(a, b *Row) *typeError {
	a, b = a.find(), b.find()
	if a == b {
		return nil
	}
	switch {
	case a.isOpen() && b.isOpen():
		a.parent = b
		return nil
	case a.isOpen():
		if rowOccurs(a, b) {
			return conflict("infinite record type")
		}
		a.parent = b
		return nil
	case b.isOpen():
		if rowOccurs(b, a) {
			return conflict("infinite record type")
		}
		b.parent = a
		return nil
	case a.closed && b.closed:
		a.parent = b
		return nil
	}

	fa, ta := gatherFields(a)
	fb, tb := gatherFields(b)
	if err := e.unifyRecordStructure(fa, ta, fb, tb); err != nil {
		return err
	}
	// Both heads now describe the same row.
	if a, b = a.find(), b.find(); a != b {
		a.parent = b
	}
	return nil
}

// unifyRecordStructure unifies shared fields and pushes the fields unique to
// one side into the other side's tail.
func (e *typeEnv) unifyRecordStructure(fa map[string]Type, ta *Row, fb map[string]Type, tb *Row) *typeError {
	onlyA := make(map[string]Type)
	onlyB := make(map[string]Type, len(fb))
	for name, t := range fb {
		onlyB[name] = t
	}
	for _, name := range sortedKeys(fa) {
		if bt, ok := onlyB[name]; ok {
			delete(onlyB, name)
			if err := e.unify(fa[name], bt); err != nil {
				return fieldError(name, err)
			}
			continue
		}
		onlyA[name] = fa[name]
	}

	switch {
	case len(onlyA) == 0 && len(onlyB) == 0:
		return e.unifyRows(ta, tb)
	case len(onlyA) == 0:
		if ta.find().closed {
			return missingFields(onlyB, "missing")
		}
		return e.unifyRows(ta, e.extendRow(onlyB, tb))
	case len(onlyB) == 0:
		if tb.find().closed {
			return missingFields(onlyA, "unexpected")
		}
		return e.unifyRows(e.extendRow(onlyA, ta), tb)
	default:
		if ta.find().closed {
			return missingFields(onlyB, "missing")
		}
		if tb.find().closed {
			return missingFields(onlyA, "unexpected")
		}
		rest := e.openRow()
		if err := e.unifyRows(ta, e.extendRow(onlyB, rest)); err != nil {
			return err
		}
		return e.unifyRows(e.extendRow(onlyA, rest), tb)
	}
}

func (e *typeEnv) unifyUnions(a, b *Union) *typeError {
	ta, tb := a.Tags(), b.Tags()
	if strings.Join(ta, "\x00") != strings.Join(tb, "\x00") {
		return &typeError{
			kind: ErrUnionShapeConflict,
			msg:  fmt.Sprintf("union variants do not match: expected {%s}, got {%s}", quoteTags(tb), quoteTags(ta)),
		}
	}
	for _, tag := range ta {
		if err := e.unifyRows(a.Variants[tag], b.Variants[tag]); err != nil {
			err.msg = fmt.Sprintf("in variant %q: %s", tag, err.msg)
			return err
		}
	}
	return nil
}

func fieldError(name string, err *typeError) *typeError {
	return &typeError{kind: err.kind, msg: fmt.Sprintf("field %q: %s", name, err.msg)}
}

func missingFields(fields map[string]Type, what string) *typeError {
	names := sortedKeys(fields)
	return conflict("record shape mismatch: %s field %s", what, strings.Join(quoteAll(names), ", "))
}

func quoteTags(tags []string) string {
	return strings.Join(quoteAll(tags), ", ")
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
