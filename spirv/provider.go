package spirv

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderobj/stage"
)

// ErrEntryPointNotFound is returned by Provider when the module has no entry
// point with the requested name and stage.
var ErrEntryPointNotFound = errors.New("spirv: entry point not found")

// Provider resolves entry-point metadata from SPIR-V code.
type Provider struct{}

// EntryPoint parses code and returns the entry point called name for st.
// Parse failures wrap *ParseError or ErrInvalidMagic; a missing entry point
// wraps ErrEntryPointNotFound.
func (Provider) EntryPoint(code []byte, name string, st stage.Stage) (*EntryPoint, error) {
	m, err := Parse(code)
	if err != nil {
		return nil, fmt.Errorf("parse module: %w", err)
	}
	ep, ok := m.EntryPoint(name, st)
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s stage", ErrEntryPointNotFound, name, st)
	}
	return ep, nil
}
