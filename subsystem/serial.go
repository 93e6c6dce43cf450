package subsystem

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

const (
	// SerialPorts is the number of serial ports.
	SerialPorts = 2
	// SerialBlockSize is the most bytes one block read returns.
	SerialBlockSize = 64

	serialBufferSize = 256
)

var (
	serialIntProperties  = []string{"baud", "bits", "readable"}
	serialBlobProperties = []string{"block"}
)

type serialPort struct {
	baud int32
	bits int32
	rx   []byte
}

// Serial serves /serial/<n>/{baud,bits,readable,block}. The ports are
// simulated in loopback: a block written to a port becomes readable from
// it.
type Serial struct {
	*osc.Properties

	mu    sync.Mutex
	ports [SerialPorts]serialPort
}

// NewSerial returns the serial subsystem with every port at 9600 8N1.
func NewSerial() (*Serial, error) {
	s := &Serial{}
	for i := range s.ports {
		s.ports[i] = serialPort{baud: 9600, bits: 8}
	}
	p, err := osc.NewIndexedProperties("serial", SerialPorts, 0,
		osc.IntProperties(serialIntProperties, osc.IntFuncs{Get: s.getInt, Set: s.setInt}),
		osc.BlobProperties(serialBlobProperties, osc.BlobFuncs{Get: s.readBlock, Set: s.writeBlock}),
	)
	if err != nil {
		return nil, err
	}
	s.Properties = p
	return s, nil
}

func (s *Serial) getInt(index, property int) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.ports[index]
	switch property {
	case 0:
		return p.baud, nil
	case 1:
		return p.bits, nil
	case 2:
		return int32(len(p.rx)), nil
	}
	return 0, osc.ErrNoProperty
}

func (s *Serial) setInt(index, property int, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.ports[index]
	switch property {
	case 0:
		if value <= 0 {
			return errors.Errorf("baud %d", value)
		}
		p.baud = value
	case 1:
		if value < 5 || value > 8 {
			return errors.Errorf("bits %d", value)
		}
		p.bits = value
	case 2:
		return errReadOnly
	default:
		return osc.ErrNoProperty
	}
	return nil
}

func (s *Serial) readBlock(index, _ int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.ports[index]
	n := min(len(p.rx), SerialBlockSize)
	out := append([]byte(nil), p.rx[:n]...)
	p.rx = p.rx[n:]
	return out, nil
}

func (s *Serial) writeBlock(index, _ int, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.ports[index]
	if len(p.rx)+len(b) > serialBufferSize {
		return errors.Wrapf(osc.ErrBufferFull, "serial %d", index)
	}
	// b aliases the receive buffer.
	p.rx = append(p.rx, b...)
	return nil
}
