package osc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_AddMethodFunc(t *testing.T) {
	type args struct {
		addr   string
		method MethodFunc
	}
	noop := func(_ *Call) error { return nil }
	tests := []struct {
		name    string
		methods []string
		args    args
		wantErr bool
	}{
		{"valid", nil, args{"/address/test", noop}, false},
		{"sibling", []string{"/address/other"}, args{"/address/test", noop}, false},
		{"invalid", nil, args{"/address*/test", noop}, true},
		{"empty_element", nil, args{"/address//test", noop}, true},
		{"already_exists", []string{"/address/test"}, args{"/address/test", noop}, true},
		{"below_method", []string{"/address"}, args{"/address/test", noop}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dispatcher{}
			for _, m := range tt.methods {
				require.NoError(t, d.AddMethodFunc(m, noop))
			}
			if err := d.AddMethodFunc(tt.args.addr, tt.args.method); (err != nil) != tt.wantErr {
				t.Errorf("AddMethodFunc() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNode_Validate(t *testing.T) {
	leaf := func(name string) *Node {
		return &Node{Name: name, Method: MethodFunc(func(*Call) error { return nil })}
	}
	tests := []struct {
		name    string
		root    *Node
		wantErr bool
	}{
		{"leaf_root", leaf("dip"), false},
		{"branch", &Node{Name: "pin", Children: []*Node{leaf("value")}}, false},
		{"range", &Node{Name: "pin", Children: []*Node{{Range: &IndexRange{Count: 8}, Children: []*Node{leaf("value")}}}}, false},
		{"range_with_literal_sibling", &Node{Name: "pin", Children: []*Node{leaf("active"), {Range: &IndexRange{Count: 8}, Children: []*Node{leaf("value")}}}}, false},
		{"range_and_method", &Node{Name: "pin", Children: []*Node{{Range: &IndexRange{Count: 8}, Method: MethodFunc(func(*Call) error { return nil })}}}, true},
		{"nested_range", &Node{Name: "pin", Children: []*Node{{Range: &IndexRange{Count: 2}, Children: []*Node{{Range: &IndexRange{Count: 2}, Children: []*Node{leaf("v")}}}}}}, true},
		{"range_too_big", &Node{Name: "pin", Children: []*Node{{Range: &IndexRange{Count: 65}, Children: []*Node{leaf("v")}}}}, true},
		{"range_root", &Node{Range: &IndexRange{Count: 2}, Children: []*Node{leaf("v")}}, true},
		{"empty_branch", &Node{Name: "pin"}, true},
		{"pattern_name", leaf("p*n"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDispatcher(tt.root)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDispatcher() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// analogTree mirrors an 8-input analog subsystem with a read-only value
// leaf per input.
func analogTree(t *testing.T, calls *[]*Call) *Dispatcher {
	t.Helper()
	value := MethodFunc(func(c *Call) error {
		*calls = append(*calls, c)
		if c.Op == OpSet {
			return errors.New("read-only")
		}
		return c.Channel.CreateMessage(c.Address, int32(c.Index*100))
	})
	d, err := NewDispatcher(&Node{
		Name: "analogin",
		Children: []*Node{{
			Range:    &IndexRange{Count: 8},
			Children: []*Node{{Name: "value", Method: value}},
		}},
	})
	require.NoError(t, err)
	return d
}

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		args    []interface{}
		want    int
		indices []int
		replies []*Message
	}{
		{"single", "/analogin/3/value", nil, 1, []int{3},
			[]*Message{NewMessage("/analogin/3/value", int32(300))}},
		{"range", "/analogin/[0-2]/value", nil, 3, []int{0, 1, 2},
			[]*Message{
				NewMessage("/analogin/0/value", int32(0)),
				NewMessage("/analogin/1/value", int32(100)),
				NewMessage("/analogin/2/value", int32(200)),
			}},
		{"wildcard_root", "/analog*/7/val?e", nil, 1, []int{7},
			[]*Message{NewMessage("/analogin/7/value", int32(700))}},
		{"bad_index", "/analogin/9/value", nil, 0, nil,
			[]*Message{NewMessage("/analogin/error", "Bad Index")}},
		{"method_error", "/analogin/1/value", []interface{}{int32(5)}, 1, []int{1},
			[]*Message{NewMessage("/analogin/error", "read-only")}},
		{"no_subsystem", "/dipswitch/value", nil, 0, nil,
			[]*Message{NewMessage("/error", "No Subsystem Match - dipswitch")}},
		{"unknown_leaf", "/analogin/1/other", nil, 0, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []*Call
			d := analogTree(t, &calls)
			ch, ft := testChannel()

			got := d.Dispatch(ch, NewMessage(tt.addr, tt.args...))
			require.NoError(t, ch.Flush())

			assert.Equal(t, tt.want, got)
			var indices []int
			for _, c := range calls {
				indices = append(indices, c.Index)
			}
			assert.Equal(t, tt.indices, indices)
			assert.Equal(t, tt.replies, ft.replies(t))
		})
	}
}

func TestDispatcher_Help(t *testing.T) {
	var calls []*Call
	d := analogTree(t, &calls)
	ch, ft := testChannel()

	assert.Equal(t, 0, d.Dispatch(ch, NewMessage("/analogin")))
	assert.Equal(t, 0, d.Dispatch(ch, NewMessage("/analogin/2")))
	require.NoError(t, ch.Flush())

	msgs := ft.replies(t)
	require.Len(t, msgs, 9)
	for i := 0; i < 8; i++ {
		assert.Equal(t, "/analogin", msgs[i].Address)
	}
	assert.Equal(t, []interface{}{"7"}, msgs[7].Arguments)
	assert.Equal(t, NewMessage("/analogin/2", "value"), msgs[8])
	assert.Empty(t, calls)
}

func TestDispatcher_LiteralPaths(t *testing.T) {
	d := &Dispatcher{}
	var got []string
	record := func(c *Call) error {
		got = append(got, c.Address)
		return nil
	}
	require.NoError(t, d.AddMethodFunc("/osc/one", record))
	require.NoError(t, d.AddMethodFunc("/osc/two", record))
	require.NoError(t, d.AddMethodFunc("/other", record))

	ch, _ := testChannel()
	assert.Equal(t, 2, d.Dispatch(ch, NewMessage("/osc/*")))
	assert.Equal(t, 1, d.Dispatch(ch, NewMessage("/{osc,x}/tw?")))
	assert.Equal(t, 1, d.Dispatch(ch, NewMessage("/other", int32(1))))
	assert.Equal(t, []string{"/osc/one", "/osc/two", "/osc/two", "/other"}, got)
}
