package runtime

// Node is a platform node as seen by generated code. Implementations wrap a
// browser DOM node or an in-memory tree.
type Node interface {
	// AppendChild adds child as the last child of the receiver.
	AppendChild(child Node)
	// Before inserts n as the previous sibling of the receiver.
	Before(n Node)
	// ReplaceWith puts n in the receiver's place in its parent.
	ReplaceWith(n Node)
	// Remove detaches the receiver from its parent.
	Remove()

	SetText(s string)
	SetAttribute(name, value string)
	// SetBoolAttribute adds the attribute when on is true and removes it otherwise.
	SetBoolAttribute(name string, on bool)
	// SetHandler replaces the listener for event; a nil fn removes it.
	SetHandler(event string, fn func())
}

// Document creates nodes.
type Document interface {
	CreateElement(tag string) Node
	CreateText(s string) Node
	CreateComment(s string) Node
}

var document Document

// SetDocument selects the document generated views build into. It must be
// called before the first view is built.
func SetDocument(d Document) {
	document = d
}

// CurrentDocument returns the document set with SetDocument.
func CurrentDocument() Document {
	return document
}

func doc() Document {
	if document == nil {
		panic("runtime: no document; call runtime.SetDocument first")
	}
	return document
}

// Element creates an element node.
func Element(tag string) Node { return doc().CreateElement(tag) }

// Text creates a text node.
func Text(s string) Node { return doc().CreateText(s) }

// Comment creates a comment node; generated code uses empty comments as
// placeholders and loop anchors.
func Comment(s string) Node { return doc().CreateComment(s) }
