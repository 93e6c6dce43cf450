package osc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Call is one invocation of a Method.
type Call struct {
	Channel *Channel
	// Address is the concrete address of the method, with instance numbers
	// in place of any pattern the sender used.
	Address string
	// Index is the zero-based instance of the nearest enclosing range node,
	// or -1 outside of any range.
	Index int
	Op    Operation
	Args  []interface{}
}

// Method is an interface for OSC Methods.
type Method interface {
	HandleMessage(call *Call) error
}

// MethodFunc implements the Method interface. Type definition for an OSC Method function.
type MethodFunc func(call *Call) error

// HandleMessage calls itself with the given call. Implements the Method interface.
func (f MethodFunc) HandleMessage(call *Call) error {
	return f(call)
}

// IndexRange makes a node stand for Count numbered instances, named
// Offset through Offset+Count-1.
type IndexRange struct {
	Count  int
	Offset int
}

// NodeKind tells leaves, branches and range nodes apart.
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeBranch
	NodeRange
)

// Node is an element of a dispatch tree. A leaf has a Method. A branch has
// Children matched by name. A range node has no name of its own: it
// consumes one address element as an instance number and continues into
// its Children.
type Node struct {
	Name     string
	Method   Method
	Children []*Node
	Range    *IndexRange
}

// Kind returns the node's kind.
func (n *Node) Kind() NodeKind {
	switch {
	case n.Range != nil:
		return NodeRange
	case n.Method != nil:
		return NodeLeaf
	}
	return NodeBranch
}

func (n *Node) validate(inRange bool) error {
	switch n.Kind() {
	case NodeRange:
		if n.Method != nil {
			return errors.Errorf("node %q: range node with a method", n.Name)
		}
		if inRange {
			return errors.Errorf("node %q: nested range", n.Name)
		}
		if n.Range.Count < 1 || n.Range.Count > MaxRangeCount {
			return errors.Errorf("node %q: range count %d", n.Name, n.Range.Count)
		}
		if n.Range.Offset < 0 {
			return errors.Errorf("node %q: negative range offset", n.Name)
		}
		inRange = true
	case NodeLeaf:
		if len(n.Children) > 0 {
			return errors.Errorf("node %q: leaf with children", n.Name)
		}
		return nil
	default:
		if n.Name == "" {
			return errors.New("branch without a name")
		}
	}
	if len(n.Children) == 0 {
		return errors.Errorf("node %q: no children", n.Name)
	}
	for _, c := range n.Children {
		if c.Kind() != NodeRange && c.Name == "" {
			return errors.Errorf("node %q: unnamed child", n.Name)
		}
		if err := c.validate(inRange); err != nil {
			return err
		}
	}
	return nil
}

// Dispatcher is a set of dispatch trees, one per subsystem root.
type Dispatcher struct {
	roots []*Node
}

// NewDispatcher validates roots and returns a dispatcher over them.
func NewDispatcher(roots ...*Node) (*Dispatcher, error) {
	d := &Dispatcher{}
	for _, r := range roots {
		if err := d.AddNode(r); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddNode adds a root. Its name must be unique among the roots.
func (d *Dispatcher) AddNode(root *Node) error {
	if root.Kind() == NodeRange {
		return errors.New("AddNode: root cannot be a range node")
	}
	if err := validSubsystemName(root.Name); err != nil {
		return errors.Wrap(err, "AddNode")
	}
	if err := root.validate(false); err != nil {
		return errors.Wrap(err, "AddNode")
	}
	for _, r := range d.roots {
		if r.Name == root.Name {
			return errors.Errorf("AddNode: root %q exists already", root.Name)
		}
	}
	d.roots = append(d.roots, root)
	return nil
}

// AddMethod adds a method at a literal address, creating branches on the
// way.
func (d *Dispatcher) AddMethod(addr string, method Method) error {
	if strings.ContainsAny(addr, "*?,[]{}#\\ ") {
		return errors.New("AddMethod: OSC Method may not contain any characters in \"*?,[]{}#\\ \"")
	}
	elems := splitAddress(addr)
	for _, e := range elems {
		if e == "" {
			return errors.Errorf("AddMethod: empty element in %q", addr)
		}
	}

	var parent *Node
	level := d.roots
	for i, e := range elems {
		var next *Node
		for _, n := range level {
			if n.Name == e && n.Kind() != NodeRange {
				next = n
				break
			}
		}
		last := i == len(elems)-1
		if next != nil && (last || next.Kind() == NodeLeaf) {
			return errors.Errorf("AddMethod: %q exists already", joinAddress(elems[:i+1]...))
		}
		if next == nil {
			next = &Node{Name: e}
			if last {
				next.Method = method
			}
			if parent == nil {
				d.roots = append(d.roots, next)
			} else {
				parent.Children = append(parent.Children, next)
			}
		}
		parent, level = next, next.Children
	}
	return nil
}

// AddMethodFunc allows you to just pass a MethodFunc.
func (d *Dispatcher) AddMethodFunc(addr string, method MethodFunc) error {
	return d.AddMethod(addr, method)
}

// Subsystems wraps each root as a Subsystem for an Engine.
func (d *Dispatcher) Subsystems() []Subsystem {
	subs := make([]Subsystem, len(d.roots))
	for i, r := range d.roots {
		subs[i] = &nodeSubsystem{root: r}
	}
	return subs
}

// Dispatch routes msg through the trees and returns the number of methods
// invoked. Replies go to ch.
func (d *Dispatcher) Dispatch(ch *Channel, msg *Message) int {
	return route(ch, d.Subsystems(), msg)
}

// NewNodeSubsystem validates root and wraps it as a Subsystem.
func NewNodeSubsystem(root *Node) (Subsystem, error) {
	d, err := NewDispatcher(root)
	if err != nil {
		return nil, err
	}
	return d.Subsystems()[0], nil
}

type nodeSubsystem struct {
	root *Node
}

func (s *nodeSubsystem) Name() string { return s.root.Name }

func (s *nodeSubsystem) Receive(ch *Channel, req *Request) int {
	w := &treeWalk{ch: ch, req: req, root: s.root.Name}
	w.visit(s.root, joinAddress(s.root.Name), req.Elements, -1)
	return w.count
}

type treeWalk struct {
	ch    *Channel
	req   *Request
	root  string
	count int
}

func (w *treeWalk) visit(n *Node, path string, elems []string, index int) {
	if n.Kind() == NodeLeaf {
		w.count++
		call := &Call{Channel: w.ch, Address: path, Index: index, Op: w.req.Op, Args: w.req.Message.Arguments}
		if err := n.Method.HandleMessage(call); err != nil {
			w.ch.SendError(w.root, err)
		}
		return
	}

	if len(elems) == 0 || elems[0] == "" {
		w.help(n, path)
		return
	}

	matched := false
	var rangeErr error
	for _, c := range n.Children {
		if c.Kind() != NodeRange {
			if GlobMatch(elems[0], c.Name) {
				matched = true
				w.visit(c, path+"/"+c.Name, elems[1:], index)
			}
			continue
		}
		r, err := NumberMatch(elems[0], c.Range.Offset, c.Range.Count)
		if err != nil {
			rangeErr = err
			continue
		}
		matched = true
		for r.HasNext() {
			i := r.Next()
			w.visit(c, path+"/"+strconv.Itoa(c.Range.Offset+i), elems[1:], i)
		}
	}
	if !matched && rangeErr != nil {
		w.ch.SendError(w.root, rangeErr)
	}
}

// help lists what can follow path: child names, and the instance numbers
// of range children.
func (w *treeWalk) help(n *Node, path string) {
	for _, c := range n.Children {
		if c.Kind() != NodeRange {
			if err := w.ch.CreateMessage(path, c.Name); err != nil {
				LogDebug(ComponentDispatch, "help reply not sent", "address", path, "err", err)
				return
			}
			continue
		}
		for i := 0; i < c.Range.Count; i++ {
			if err := w.ch.CreateMessage(path, strconv.Itoa(c.Range.Offset+i)); err != nil {
				LogDebug(ComponentDispatch, "help reply not sent", "address", path, "err", err)
				return
			}
		}
	}
}
