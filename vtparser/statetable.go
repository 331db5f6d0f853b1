package vtparser

// state identifies one node of the VT500 parser transition graph.
type state uint8

const (
	stateGround state = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateDcsEntry
	stateDcsParam
	stateDcsIntermediate
	stateDcsPassthrough
	stateDcsIgnore
	stateOscString
	stateSosPmApcString
	numStates
)

// action identifies the semantic effect the Decoder should perform for a
// given (state, byte) pair, before following the resulting transition.
type action uint8

const (
	actionIgnore action = iota
	actionError
	actionPrint
	actionExecute
	actionOscStart
	actionOscPut
	actionOscEnd
	actionCsiDispatch
	actionParam
	actionCollect
	actionEscDispatch
	actionClear
	actionDcsHook
	actionDcsPut
	actionDcsUnhook
	actionSosStart
	actionSosPut
	actionSosEnd
)

// transition is one cell of the transition table: the action to perform
// and the state to move to afterward.
type transition struct {
	action action
	next   state
}

// transitionTable is built once at package init and indexed
// transitionTable[state][byte]. It never changes after init, so lookups
// are plain array indexing with no locking or allocation.
var transitionTable [numStates][256]transition

func init() {
	for s := state(0); s < numStates; s++ {
		for b := 0; b < 256; b++ {
			transitionTable[s][b] = transitionFor(s, byte(b))
		}
	}
}

// transitionFor computes the table entry for one (state, byte) pair. It
// implements the "anywhere" transitions first (C1 controls, ESC, CAN/SUB)
// and then falls through to per-state ranges, matching the DEC VT500
// parser state diagram.
func transitionFor(s state, b byte) transition {
	switch {
	case b == 0x18 || b == 0x1a:
		return transition{actionExecute, stateGround}
	case b == 0x1b:
		return transition{actionClear, stateEscape}
	case b >= 0x80 && b <= 0x8f, b == 0x91, b == 0x92, b == 0x93, b == 0x94, b == 0x95, b == 0x96, b == 0x97, b == 0x99, b == 0x9a:
		return transition{actionExecute, stateGround}
	case b == 0x9c:
		return transition{actionIgnore, stateGround}
	case b == 0x90:
		return transition{actionClear, stateDcsEntry}
	case b == 0x9d:
		return transition{actionOscStart, stateOscString}
	case b == 0x98, b == 0x9e, b == 0x9f:
		return transition{actionSosStart, stateSosPmApcString}
	}

	switch s {
	case stateGround:
		return groundTransition(b)
	case stateEscape:
		return escapeTransition(b)
	case stateEscapeIntermediate:
		return escapeIntermediateTransition(b)
	case stateCsiEntry:
		return csiEntryTransition(b)
	case stateCsiParam:
		return csiParamTransition(b)
	case stateCsiIntermediate:
		return csiIntermediateTransition(b)
	case stateCsiIgnore:
		return csiIgnoreTransition(b)
	case stateDcsEntry:
		return dcsEntryTransition(b)
	case stateDcsParam:
		return dcsParamTransition(b)
	case stateDcsIntermediate:
		return dcsIntermediateTransition(b)
	case stateDcsPassthrough:
		return dcsPassthroughTransition(b)
	case stateDcsIgnore:
		return dcsIgnoreTransition(b)
	case stateOscString:
		return oscStringTransition(b)
	case stateSosPmApcString:
		return sosPmApcTransition(b)
	}
	return transition{actionIgnore, stateGround}
}

func isC0Executable(b byte) bool {
	return (b <= 0x17 || b == 0x19 || (b >= 0x1c && b <= 0x1f))
}

func groundTransition(b byte) transition {
	if isC0Executable(b) {
		return transition{actionExecute, stateGround}
	}
	if b >= 0x20 {
		return transition{actionPrint, stateGround}
	}
	return transition{actionIgnore, stateGround}
}

func escapeTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateEscape}
	case b == 0x7f:
		return transition{actionIgnore, stateEscape}
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateEscapeIntermediate}
	case b == 0x5b:
		return transition{actionClear, stateCsiEntry}
	case b == 0x5d:
		return transition{actionOscStart, stateOscString}
	case b == 0x50:
		return transition{actionClear, stateDcsEntry}
	case b == 0x58, b == 0x5e, b == 0x5f:
		return transition{actionSosStart, stateSosPmApcString}
	case b >= 0x30 && b <= 0x7e:
		return transition{actionEscDispatch, stateGround}
	}
	return transition{actionIgnore, stateEscape}
}

func escapeIntermediateTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateEscapeIntermediate}
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateEscapeIntermediate}
	case b >= 0x30 && b <= 0x7e:
		return transition{actionEscDispatch, stateGround}
	}
	return transition{actionIgnore, stateEscapeIntermediate}
}

func csiEntryTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateCsiEntry}
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateCsiIntermediate}
	case (b >= 0x30 && b <= 0x39) || b == 0x3b || b == 0x3a:
		return transition{actionParam, stateCsiParam}
	case b >= 0x3c && b <= 0x3f:
		return transition{actionCollect, stateCsiParam}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionCsiDispatch, stateGround}
	}
	return transition{actionIgnore, stateCsiEntry}
}

func csiParamTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateCsiParam}
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateCsiIntermediate}
	case (b >= 0x30 && b <= 0x39) || b == 0x3b || b == 0x3a:
		return transition{actionParam, stateCsiParam}
	case b >= 0x3c && b <= 0x3f:
		return transition{actionIgnore, stateCsiIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionCsiDispatch, stateGround}
	}
	return transition{actionIgnore, stateCsiParam}
}

func csiIntermediateTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateCsiIntermediate}
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateCsiIntermediate}
	case b >= 0x30 && b <= 0x3f:
		return transition{actionIgnore, stateCsiIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionCsiDispatch, stateGround}
	}
	return transition{actionIgnore, stateCsiIntermediate}
}

func csiIgnoreTransition(b byte) transition {
	switch {
	case isC0Executable(b):
		return transition{actionExecute, stateCsiIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionIgnore, stateGround}
	}
	return transition{actionIgnore, stateCsiIgnore}
}

func dcsEntryTransition(b byte) transition {
	switch {
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateDcsIntermediate}
	case (b >= 0x30 && b <= 0x39) || b == 0x3b:
		return transition{actionParam, stateDcsParam}
	case b == 0x3a:
		return transition{actionIgnore, stateDcsIgnore}
	case b >= 0x3c && b <= 0x3f:
		return transition{actionCollect, stateDcsParam}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionDcsHook, stateDcsPassthrough}
	}
	return transition{actionIgnore, stateDcsEntry}
}

func dcsParamTransition(b byte) transition {
	switch {
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateDcsIntermediate}
	case (b >= 0x30 && b <= 0x39) || b == 0x3b:
		return transition{actionParam, stateDcsParam}
	case b == 0x3a || (b >= 0x3c && b <= 0x3f):
		return transition{actionIgnore, stateDcsIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionDcsHook, stateDcsPassthrough}
	}
	return transition{actionIgnore, stateDcsParam}
}

func dcsIntermediateTransition(b byte) transition {
	switch {
	case b >= 0x20 && b <= 0x2f:
		return transition{actionCollect, stateDcsIntermediate}
	case b >= 0x30 && b <= 0x3f:
		return transition{actionIgnore, stateDcsIgnore}
	case b >= 0x40 && b <= 0x7e:
		return transition{actionDcsHook, stateDcsPassthrough}
	}
	return transition{actionIgnore, stateDcsIntermediate}
}

func dcsPassthroughTransition(b byte) transition {
	switch {
	case isC0Executable(b), b >= 0x20 && b <= 0x7e:
		return transition{actionDcsPut, stateDcsPassthrough}
	}
	return transition{actionIgnore, stateDcsPassthrough}
}

func dcsIgnoreTransition(b byte) transition {
	return transition{actionIgnore, stateDcsIgnore}
}

func oscStringTransition(b byte) transition {
	switch {
	case b == 0x07:
		return transition{actionOscEnd, stateGround}
	case b >= 0x20 && b <= 0x7f:
		return transition{actionOscPut, stateOscString}
	}
	return transition{actionIgnore, stateOscString}
}

// sosPmApcTransition handles SOS/PM/APC string bodies (ESC X/^/_ ... ST).
// xterm also honors a bare BEL as an informal terminator, matched here for
// the same tolerance oscStringTransition gives OSC strings.
func sosPmApcTransition(b byte) transition {
	switch {
	case b == 0x07:
		return transition{actionSosEnd, stateGround}
	case b >= 0x20 && b <= 0x7f:
		return transition{actionSosPut, stateSosPmApcString}
	}
	return transition{actionIgnore, stateSosPmApcString}
}
