package tapin

import (
	"github.com/arloliu/go-tapin/frame"
)

// command is the request issued when a state is entered.
type command struct {
	dest frame.Destination
	op   frame.Opcode
	args []byte
}

// payload returns the wire payload: opcode followed by the fixed arguments.
func (c command) payload() []byte {
	p := make([]byte, 0, 1+len(c.args))
	p = append(p, byte(c.op))

	return append(p, c.args...)
}

// commandTable maps each state to the command issued on (re-)entry.
var commandTable = map[State]command{
	GettingConsoleStatus:     {dest: frame.DestBridge, op: frame.OpGetStatus},
	WaitingForLensAttachment: {dest: frame.DestBridge, op: frame.OpIsAttached},
	PoweringOnLens:           {dest: frame.DestBridge, op: frame.OpPowerOn, args: []byte{0x00}},
	GettingLensStatus:        {dest: frame.DestPeripheral, op: frame.OpGetStatus},
	GettingLensSetting:       {dest: frame.DestPeripheral, op: frame.OpGetSettings},
	PoweringOffLens:          {dest: frame.DestBridge, op: frame.OpPowerOff},
	LoopingLensStatus:        {dest: frame.DestPeripheral, op: frame.OpGetStatus},
}

// replyRule is the reply a state waits for and what to do when it arrives.
type replyRule struct {
	expect frame.Opcode
	handle func(s *Session, payload []byte) error
}

// replyTable maps each state to the reply it accepts.
var replyTable = map[State]replyRule{
	GettingConsoleStatus: {
		expect: frame.OpGetStatus,
		handle: func(s *Session, _ []byte) error {
			return s.advance(WaitingForLensAttachment)
		},
	},
	WaitingForLensAttachment: {
		expect: frame.OpIsAttached,
		handle: (*Session).onAttachedReply,
	},
	PoweringOnLens: {
		expect: frame.OpPowerOn,
		handle: func(s *Session, _ []byte) error {
			return s.advance(GettingLensStatus)
		},
	},
	GettingLensStatus: {
		expect: frame.OpGetStatus,
		handle: (*Session).onLensStatusReply,
	},
	GettingLensSetting: {
		expect: frame.OpGetSettings,
		handle: func(s *Session, _ []byte) error {
			if s.cfg.loopMode {
				return s.advance(LoopingLensStatus)
			}

			return s.advance(PoweringOffLens)
		},
	},
	PoweringOffLens: {
		expect: frame.OpPowerOff,
		handle: (*Session).onPowerOffReply,
	},
	LoopingLensStatus: {
		expect: frame.OpGetStatus,
		handle: func(s *Session, _ []byte) error {
			return s.advance(LoopingLensStatus)
		},
	},
}
