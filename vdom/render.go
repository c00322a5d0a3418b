//go:build js && wasm

package vdom

import (
	"errors"
	"syscall/js"

	"github.com/vcrobe/vgc/console"
	"github.com/vcrobe/vgc/runtime"
)

// Browser is the runtime.Document backed by the page's DOM.
type Browser struct {
	doc js.Value
}

// domNode wraps a DOM node and the listeners installed on it, so a handler
// can be swapped without leaking the previous js.Func.
type domNode struct {
	v         js.Value
	listeners map[string]js.Func
}

var _ runtime.Document = (*Browser)(nil)

// NewBrowser returns the document of the current page.
func NewBrowser() (*Browser, error) {
	doc := js.Global().Get("document")
	if !doc.Truthy() {
		return nil, errors.New("vdom: no global document")
	}
	return &Browser{doc: doc}, nil
}

// Mount returns the first element matching the CSS selector, emptied, for
// use as the mount point of runtime.Run.
func (b *Browser) Mount(selector string) (runtime.Node, error) {
	el := b.doc.Call("querySelector", selector)
	if !el.Truthy() {
		console.Error("Mount element not found for selector:", selector)
		return nil, errors.New("vdom: mount element not found: " + selector)
	}
	el.Set("textContent", "")
	return &domNode{v: el}, nil
}

func (b *Browser) CreateElement(tag string) runtime.Node {
	return &domNode{v: b.doc.Call("createElement", tag)}
}

func (b *Browser) CreateText(s string) runtime.Node {
	return &domNode{v: b.doc.Call("createTextNode", s)}
}

func (b *Browser) CreateComment(s string) runtime.Node {
	return &domNode{v: b.doc.Call("createComment", s)}
}

func jsValue(n runtime.Node) js.Value {
	return n.(*domNode).v
}

func (n *domNode) AppendChild(child runtime.Node) { n.v.Call("appendChild", jsValue(child)) }
func (n *domNode) Before(other runtime.Node)      { n.v.Call("before", jsValue(other)) }
func (n *domNode) ReplaceWith(other runtime.Node) { n.v.Call("replaceWith", jsValue(other)) }
func (n *domNode) Remove()                        { n.v.Call("remove") }

// SetText sets the data of text nodes and the text content of elements.
func (n *domNode) SetText(s string) {
	n.v.Set("textContent", s)
}

func (n *domNode) SetAttribute(name, value string) {
	n.v.Call("setAttribute", name, value)
}

func (n *domNode) SetBoolAttribute(name string, on bool) {
	n.v.Call("toggleAttribute", name, on)
}

func (n *domNode) SetHandler(event string, fn func()) {
	if old, ok := n.listeners[event]; ok {
		n.v.Call("removeEventListener", event, old)
		old.Release()
		delete(n.listeners, event)
	}
	if fn == nil {
		return
	}
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	if n.listeners == nil {
		n.listeners = make(map[string]js.Func)
	}
	n.listeners[event] = cb
	n.v.Call("addEventListener", event, cb)
}
