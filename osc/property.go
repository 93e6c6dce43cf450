package osc

import (
	"strconv"

	"github.com/pkg/errors"
)

// IntAccess reads and writes integer properties. index is zero for
// subsystems with a single instance; property is the position of the name
// in the helper's name list.
type IntAccess interface {
	GetInt(index, property int) (int32, error)
	SetInt(index, property int, value int32) error
}

// IntFuncs adapts a pair of functions to IntAccess. A nil Get or Set makes
// the corresponding operation fail with ErrBadData.
type IntFuncs struct {
	Get func(index, property int) (int32, error)
	Set func(index, property int, value int32) error
}

func (f IntFuncs) GetInt(index, property int) (int32, error) {
	if f.Get == nil {
		return 0, errors.Wrap(ErrBadData, "write-only property")
	}
	return f.Get(index, property)
}

func (f IntFuncs) SetInt(index, property int, value int32) error {
	if f.Set == nil {
		return errors.Wrap(ErrBadData, "read-only property")
	}
	return f.Set(index, property, value)
}

// BlobAccess reads and writes byte-string properties. A blob passed to
// SetBlob aliases the receive buffer and must be copied to be kept.
type BlobAccess interface {
	GetBlob(index, property int) ([]byte, error)
	SetBlob(index, property int, value []byte) error
}

// BlobFuncs adapts a pair of functions to BlobAccess.
type BlobFuncs struct {
	Get func(index, property int) ([]byte, error)
	Set func(index, property int, value []byte) error
}

func (f BlobFuncs) GetBlob(index, property int) ([]byte, error) {
	if f.Get == nil {
		return nil, errors.Wrap(ErrBadData, "write-only property")
	}
	return f.Get(index, property)
}

func (f BlobFuncs) SetBlob(index, property int, value []byte) error {
	if f.Set == nil {
		return errors.Wrap(ErrBadData, "read-only property")
	}
	return f.Set(index, property, value)
}

// GeneralAccess handles properties of mixed types. The getter builds its
// own reply on ch at address; the setter receives the raw arguments.
type GeneralAccess interface {
	GetProperty(ch *Channel, address string, index, property int) error
	SetProperty(index, property int, args []interface{}) error
}

// GeneralFuncs adapts a pair of functions to GeneralAccess.
type GeneralFuncs struct {
	Get func(ch *Channel, address string, index, property int) error
	Set func(index, property int, args []interface{}) error
}

func (f GeneralFuncs) GetProperty(ch *Channel, address string, index, property int) error {
	if f.Get == nil {
		return errors.Wrap(ErrBadData, "write-only property")
	}
	return f.Get(ch, address, index, property)
}

func (f GeneralFuncs) SetProperty(index, property int, args []interface{}) error {
	if f.Set == nil {
		return errors.Wrap(ErrBadData, "read-only property")
	}
	return f.Set(index, property, args)
}

// PropertyHelper serves a family of properties sharing one access style.
type PropertyHelper interface {
	Names() []string
	serve(c *propertyCall) error
}

type propertyCall struct {
	ch       *Channel
	address  string
	index    int
	property int
	op       Operation
	args     []interface{}
}

type intHelper struct {
	names  []string
	access IntAccess
}

// IntProperties serves names as integer properties. Setters accept int32
// and float32 arguments; GET replies ",i value".
func IntProperties(names []string, access IntAccess) PropertyHelper {
	return &intHelper{names: names, access: access}
}

func (h *intHelper) Names() []string { return h.names }

func (h *intHelper) serve(c *propertyCall) error {
	switch c.op {
	case OpGet:
		v, err := h.access.GetInt(c.index, c.property)
		if err != nil {
			return err
		}
		return c.ch.CreateMessage(c.address, v)
	case OpSet:
		v, ok := Coerce[int32](c.args[0])
		if !ok {
			return ErrIncorrectDataType
		}
		return wrapSetError(h.access.SetInt(c.index, c.property, v))
	}
	return ErrBadFormat
}

type blobHelper struct {
	names  []string
	access BlobAccess
}

// BlobProperties serves names as byte-string properties. Setters accept
// blob and string arguments; GET replies ",b value".
func BlobProperties(names []string, access BlobAccess) PropertyHelper {
	return &blobHelper{names: names, access: access}
}

func (h *blobHelper) Names() []string { return h.names }

func (h *blobHelper) serve(c *propertyCall) error {
	switch c.op {
	case OpGet:
		v, err := h.access.GetBlob(c.index, c.property)
		if err != nil {
			return err
		}
		return c.ch.CreateMessage(c.address, v)
	case OpSet:
		v, ok := CoerceBlob(c.args[0])
		if !ok {
			return ErrIncorrectDataType
		}
		return wrapSetError(h.access.SetBlob(c.index, c.property, v))
	}
	return ErrBadFormat
}

type generalHelper struct {
	names  []string
	access GeneralAccess
}

// GeneralProperties serves names whose types vary per property.
func GeneralProperties(names []string, access GeneralAccess) PropertyHelper {
	return &generalHelper{names: names, access: access}
}

func (h *generalHelper) Names() []string { return h.names }

func (h *generalHelper) serve(c *propertyCall) error {
	switch c.op {
	case OpGet:
		return h.access.GetProperty(c.ch, c.address, c.index, c.property)
	case OpSet:
		return wrapSetError(h.access.SetProperty(c.index, c.property, c.args))
	}
	return ErrBadFormat
}

// wrapSetError reports setter failures that carry no error kind of their
// own as bad data.
func wrapSetError(err error) error {
	if err == nil {
		return nil
	}
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return err
		}
	}
	return errors.Wrap(ErrBadData, err.Error())
}

// Properties is a Subsystem built from property helpers, with either a
// single instance (/name/property) or a numbered set of them
// (/name/index/property).
type Properties struct {
	name    string
	count   int
	offset  int
	helpers []PropertyHelper
}

// NewProperties returns a single-instance subsystem.
func NewProperties(name string, helpers ...PropertyHelper) *Properties {
	return &Properties{name: name, helpers: helpers}
}

// NewIndexedProperties returns a subsystem with count instances numbered
// from offset.
func NewIndexedProperties(name string, count, offset int, helpers ...PropertyHelper) (*Properties, error) {
	if count < 1 || count > MaxRangeCount {
		return nil, errors.Errorf("%s: instance count %d out of range", name, count)
	}
	if offset < 0 {
		return nil, errors.Errorf("%s: negative offset", name)
	}
	return &Properties{name: name, count: count, offset: offset, helpers: helpers}, nil
}

// Name implements Subsystem.
func (p *Properties) Name() string { return p.name }

// PropertyNames returns every property name, in helper order.
func (p *Properties) PropertyNames() []string {
	var names []string
	for _, h := range p.helpers {
		names = append(names, h.Names()...)
	}
	return names
}

// Receive implements Subsystem. Failures are answered with
// "/<name>/error ,s text", one per failing index when the address names
// a range.
func (p *Properties) Receive(ch *Channel, req *Request) int {
	n, err := p.receive(ch, req)
	if err != nil {
		ch.SendError(p.name, err)
	}
	return n
}

func (p *Properties) receive(ch *Channel, req *Request) (int, error) {
	elems := req.Elements
	base := joinAddress(p.name)

	var r Range
	if p.count == 0 {
		r = SingleIndex(0)
	} else {
		if len(elems) == 0 || elems[0] == "" {
			return 0, p.listIndices(ch, base)
		}
		var err error
		if r, err = NumberMatch(elems[0], p.offset, p.count); err != nil {
			return 0, err
		}
		elems = elems[1:]
	}

	if len(elems) == 0 || elems[0] == "" {
		for r.HasNext() {
			if err := p.listProperties(ch, p.instanceAddress(r.Next())); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
	if len(elems) > 1 {
		return 0, errors.Wrapf(ErrBadFormat, "trailing %q", elems[1:])
	}

	h, property, ok := p.lookup(elems[0])
	if !ok {
		return 0, errors.Wrapf(ErrUnknownProperty, "%q", elems[0])
	}
	if req.Message.Untyped {
		return 0, ErrNoTypeTag
	}

	count := 0
	for r.HasNext() {
		i := r.Next()
		call := &propertyCall{
			ch:       ch,
			address:  p.instanceAddress(i) + "/" + elems[0],
			index:    i,
			property: property,
			op:       req.Op,
			args:     req.Message.Arguments,
		}
		// A failing index is reported on its own; the rest of the range
		// is still served.
		if err := h.serve(call); err != nil {
			ch.SendError(p.name, err)
			continue
		}
		count++
	}
	return count, nil
}

func (p *Properties) instanceAddress(i int) string {
	if p.count == 0 {
		return joinAddress(p.name)
	}
	return joinAddress(p.name, strconv.Itoa(p.offset+i))
}

func (p *Properties) lookup(name string) (PropertyHelper, int, bool) {
	for _, h := range p.helpers {
		for i, n := range h.Names() {
			if n == name {
				return h, i, true
			}
		}
	}
	return nil, 0, false
}

func (p *Properties) listProperties(ch *Channel, address string) error {
	for _, name := range p.PropertyNames() {
		if err := ch.CreateMessage(address, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Properties) listIndices(ch *Channel, address string) error {
	for i := 0; i < p.count; i++ {
		if err := ch.CreateMessage(address, strconv.Itoa(p.offset+i)); err != nil {
			return err
		}
	}
	return nil
}
