// Copyright 2013 - 2015 Sebastian Ruml <sebastian.ruml@gmail.com>
// Copyright 2021 - 2022 Mendel Greenberg <mendel@chabad360.me>

//Package osc implements an OpenSoundControl engine for a device: replies are
//staged per channel and flushed as bundles, and incoming messages are routed
//by address pattern to subsystems and their properties.
//
//Packets use the Open Sound Control 1.0 encoding (http://opensoundcontrol.org/spec-1_0.html).
//
//Features
//
//- Supports OSC messages with the following TypeTags:
//
//	'i' (int32)
//	'f' (float32)
//	's' (string)
//	'b' ([]byte)
//
//- Supports nested OSC bundles up to a configurable depth. Time tags are
//carried but every bundle is handled immediately.
//
//- Address patterns with ?, *, [a-z], [!a-z], {a,b} and \ escapes, and
//numbered instances selected by pattern, as in /appled/[0-2]/state.
//
//Channels
//
//A Channel owns one transport and one outgoing buffer. Replies created while
//a packet is handled are packed into a single bundle; a lone reply is sent
//as a bare message. When the buffer fills it is flushed and the reply is
//tried once more.
//
//Subsystems
//
//A Subsystem owns the first element of an address. Properties builds one
//from integer, blob and general property helpers, and a tree of Nodes
//builds one with a Method at each leaf. Sending an address that ends early
//lists what can follow it. A message with no arguments reads a property,
//one with arguments writes it.
//
//Usage
//
//	e := osc.NewEngine()
//	led := osc.NewProperties("led", osc.IntProperties([]string{"state"}, osc.IntFuncs{
//		Get: func(_, _ int) (int32, error) { return state, nil },
//		Set: func(_, _ int, v int32) error { state = v; return nil },
//	}))
//	e.Register(led)
//	e.AddChannel(osc.NewChannel("udp", udpTransport))
//	e.Run(ctx)
package osc
