package spirv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMagic is returned when the first word is not MagicNumber in
// either byte order.
var ErrInvalidMagic = errors.New("spirv: invalid magic number")

// ParseError reports a malformed instruction stream.
type ParseError struct {
	// Word is the index of the offending word, header included.
	Word    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("spirv: word %d: %s", e.Word, e.Message)
}

// Parse decodes a SPIR-V binary given as bytes. Both byte orders are
// accepted; the order is taken from the magic number.
func Parse(code []byte) (*Module, error) {
	if len(code)%4 != 0 {
		return nil, &ParseError{Word: len(code) / 4, Message: fmt.Sprintf("length %d is not a multiple of 4", len(code))}
	}
	if len(code) < 4 {
		return nil, &ParseError{Message: "empty module"}
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch {
	case binary.LittleEndian.Uint32(code) == MagicNumber:
	case binary.BigEndian.Uint32(code) == MagicNumber:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, binary.LittleEndian.Uint32(code))
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = order.Uint32(code[i*4:])
	}
	return ParseWords(words)
}

// ParseWords decodes a SPIR-V binary already split into host-order words.
func ParseWords(words []uint32) (*Module, error) {
	if len(words) < headerWords {
		return nil, &ParseError{Word: len(words), Message: "truncated header"}
	}
	if words[0] != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, words[0])
	}

	m := &Module{
		Header: Header{
			Version:   Version{Major: uint8(words[1] >> 16), Minor: uint8(words[1] >> 8)},
			Generator: words[2],
			Bound:     words[3],
			Schema:    words[4],
		},
	}

	type pendingMode struct {
		target   uint32
		mode     ExecutionMode
		operands []uint32
	}
	var modes []pendingMode

	for offset := headerWords; offset < len(words); {
		opcode := OpCode(words[offset] & 0xFFFF)
		wordCount := int(words[offset] >> 16)
		if wordCount == 0 {
			return nil, &ParseError{Word: offset, Message: "zero word count"}
		}
		if offset+wordCount > len(words) {
			return nil, &ParseError{Word: offset, Message: fmt.Sprintf("word count %d overruns module", wordCount)}
		}
		ops := words[offset+1 : offset+wordCount]

		switch opcode {
		case OpCapability:
			if len(ops) < 1 {
				return nil, &ParseError{Word: offset, Message: "OpCapability without operand"}
			}
			m.Capabilities = append(m.Capabilities, Capability(ops[0]))

		case OpEntryPoint:
			if len(ops) < 3 {
				return nil, &ParseError{Word: offset, Message: "OpEntryPoint too short"}
			}
			name, n, ok := readString(ops[2:])
			if !ok {
				return nil, &ParseError{Word: offset, Message: "unterminated entry point name"}
			}
			m.EntryPoints = append(m.EntryPoints, EntryPoint{
				Model:     ExecutionModel(ops[0]),
				Function:  ops[1],
				Name:      name,
				Interface: append([]uint32(nil), ops[2+n:]...),
			})

		case OpExecutionMode, OpExecutionModeID:
			if len(ops) < 2 {
				return nil, &ParseError{Word: offset, Message: "OpExecutionMode too short"}
			}
			modes = append(modes, pendingMode{
				target:   ops[0],
				mode:     ExecutionMode(ops[1]),
				operands: ops[2:],
			})
		}

		offset += wordCount
	}

	for _, pm := range modes {
		for i := range m.EntryPoints {
			if m.EntryPoints[i].Function == pm.target {
				m.EntryPoints[i].Modes.apply(pm.mode, pm.operands)
			}
		}
	}
	return m, nil
}

// readString decodes a nul-terminated literal string and returns it with the
// number of words it occupies.
func readString(words []uint32) (string, int, bool) {
	var sb strings.Builder
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1, true
			}
			sb.WriteByte(b)
		}
	}
	return "", 0, false
}
