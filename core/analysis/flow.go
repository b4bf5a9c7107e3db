package analysis

import "encoding/json"

// MaxFlowDepth bounds flow nesting. Constructs found deeper than this are
// attached flat to the deepest allowed container, which keeps complexity
// scores exact.
const MaxFlowDepth = 128

// FlowNode is one classified control-flow construct. The set of
// implementations is closed.
type FlowNode interface {
	Kind() FlowKind
	Children() []FlowNode
	flowNode()
}

type FlowKind string

const (
	FlowConditional FlowKind = "conditional"
	FlowFor         FlowKind = "loop_for"
	FlowWhile       FlowKind = "loop_while"
	FlowTryCatch    FlowKind = "try_catch"
	FlowThrow       FlowKind = "throw"
	FlowReturn      FlowKind = "return"
)

type Conditional struct {
	Condition string
	HasElse   bool
	Body      []FlowNode
}

type ForLoop struct {
	Header string
	Body   []FlowNode
}

type WhileLoop struct {
	Condition string
	Body      []FlowNode
}

// TryCatch holds one entry per handler arm, in source order.
type TryCatch struct {
	Exceptions []string
	HasFinally bool
	Body       []FlowNode
}

type Throw struct {
	Exception string
}

type Return struct {
	Value string
}

func (*Conditional) Kind() FlowKind { return FlowConditional }
func (*ForLoop) Kind() FlowKind     { return FlowFor }
func (*WhileLoop) Kind() FlowKind   { return FlowWhile }
func (*TryCatch) Kind() FlowKind    { return FlowTryCatch }
func (*Throw) Kind() FlowKind       { return FlowThrow }
func (*Return) Kind() FlowKind      { return FlowReturn }

func (n *Conditional) Children() []FlowNode { return n.Body }
func (n *ForLoop) Children() []FlowNode     { return n.Body }
func (n *WhileLoop) Children() []FlowNode   { return n.Body }
func (n *TryCatch) Children() []FlowNode    { return n.Body }
func (*Throw) Children() []FlowNode         { return nil }
func (*Return) Children() []FlowNode        { return nil }

func (*Conditional) flowNode() {}
func (*ForLoop) flowNode()     {}
func (*WhileLoop) flowNode()   {}
func (*TryCatch) flowNode()    {}
func (*Throw) flowNode()       {}
func (*Return) flowNode()      {}

// AppendChild attaches child to a container node. It reports false for
// leaf nodes.
func AppendChild(parent, child FlowNode) bool {
	switch p := parent.(type) {
	case *Conditional:
		p.Body = append(p.Body, child)
	case *ForLoop:
		p.Body = append(p.Body, child)
	case *WhileLoop:
		p.Body = append(p.Body, child)
	case *TryCatch:
		p.Body = append(p.Body, child)
	default:
		return false
	}
	return true
}

// IsContainer reports whether n can hold nested flow.
func IsContainer(n FlowNode) bool {
	switch n.(type) {
	case *Conditional, *ForLoop, *WhileLoop, *TryCatch:
		return true
	}
	return false
}

func nested(body []FlowNode) []FlowNode {
	if body == nil {
		return []FlowNode{}
	}
	return body
}

func (n *Conditional) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      FlowKind   `json:"type"`
		Condition string     `json:"condition"`
		HasElse   bool       `json:"has_else"`
		Nested    []FlowNode `json:"nested_flow"`
	}{n.Kind(), n.Condition, n.HasElse, nested(n.Body)})
}

func (n *ForLoop) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   FlowKind   `json:"type"`
		Header string     `json:"header"`
		Nested []FlowNode `json:"nested_flow"`
	}{n.Kind(), n.Header, nested(n.Body)})
}

func (n *WhileLoop) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      FlowKind   `json:"type"`
		Condition string     `json:"condition"`
		Nested    []FlowNode `json:"nested_flow"`
	}{n.Kind(), n.Condition, nested(n.Body)})
}

func (n *TryCatch) MarshalJSON() ([]byte, error) {
	exceptions := n.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	return json.Marshal(struct {
		Type       FlowKind   `json:"type"`
		Exceptions []string   `json:"exceptions"`
		HasFinally bool       `json:"has_finally"`
		Nested     []FlowNode `json:"nested_flow"`
	}{n.Kind(), exceptions, n.HasFinally, nested(n.Body)})
}

func (n *Throw) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      FlowKind `json:"type"`
		Exception string   `json:"exception"`
	}{n.Kind(), n.Exception})
}

func (n *Return) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  FlowKind `json:"type"`
		Value string   `json:"value"`
	}{n.Kind(), n.Value})
}
