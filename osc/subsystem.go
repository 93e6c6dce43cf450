package osc

import (
	"strings"

	"github.com/pkg/errors"
)

// Operation is what a message asks of the property it addresses.
type Operation int

const (
	OpGet Operation = iota
	OpSet
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// OperationFor returns OpGet for a message without arguments and OpSet
// otherwise.
func OperationFor(args []interface{}) Operation {
	if len(args) == 0 {
		return OpGet
	}
	return OpSet
}

// Request is a message on its way to a subsystem.
type Request struct {
	Message *Message
	// Elements are the address elements after the subsystem name. They are
	// shared between subsystems and must not be modified.
	Elements []string
	Op       Operation
}

// Subsystem is a top-level address space such as /led or /analogin.
type Subsystem interface {
	Name() string
	// Receive handles req, replying on ch, and returns how many
	// properties or endpoints it served.
	Receive(ch *Channel, req *Request) int
}

// Poller is implemented by subsystems that send unsolicited updates on
// channels with autosend enabled. Poll returns the number of messages it
// created.
type Poller interface {
	Poll(ch *Channel) int
}

func validSubsystemName(name string) error {
	if name == "" || strings.ContainsAny(name, "/ \x00") || strings.ContainsAny(name, "*?[]{}\\,") {
		return errors.Errorf("invalid subsystem name %q", name)
	}
	return nil
}

// route hands msg to every subsystem whose name matches the first address
// element. A lone "/" lists the subsystems.
func route(ch *Channel, subs []Subsystem, msg *Message) int {
	elems := splitAddress(msg.Address)
	if elems[0] == "" && len(elems) == 1 {
		for _, sub := range subs {
			if err := ch.CreateMessage("/", sub.Name()); err != nil {
				LogDebug(ComponentDispatch, "listing subsystems", "err", err)
				break
			}
		}
		return 0
	}

	req := &Request{Message: msg, Elements: elems[1:], Op: OperationFor(msg.Arguments)}
	matched, count := 0, 0
	for _, sub := range subs {
		if !GlobMatch(elems[0], sub.Name()) {
			continue
		}
		matched++
		count += sub.Receive(ch, req)
	}
	if matched == 0 {
		LogDebug(ComponentDispatch, "no subsystem", "address", msg.Address)
		if err := ch.CreateMessage("/error", "No Subsystem Match - "+elems[0]); err != nil {
			LogDebug(ComponentDispatch, "error reply not sent", "err", err)
		}
	}
	return count
}
