// spvinfo - SPIR-V interface summary
// Prints what shader-object creation reads from a module: header,
// capabilities, entry points and their execution modes.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gogpu/shaderobj/spirv"
)

var capabilityNames = map[spirv.Capability]string{
	spirv.CapabilityMatrix:         "Matrix",
	spirv.CapabilityShader:         "Shader",
	spirv.CapabilityGeometry:       "Geometry",
	spirv.CapabilityTessellation:   "Tessellation",
	spirv.CapabilityMeshShadingNV:  "MeshShadingNV",
	spirv.CapabilityMeshShadingEXT: "MeshShadingEXT",
}

func capabilityName(c spirv.Capability) string {
	if s, ok := capabilityNames[c]; ok {
		return s
	}
	return strconv.FormatUint(uint64(c), 10)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: spvinfo <file.spv> [file.spv...]")
		return
	}
	failed := false
	for _, path := range os.Args[1:] {
		if err := describe(os.Stdout, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func describe(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := spirv.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	printModule(w, path, m)
	return nil
}

func printModule(w io.Writer, path string, m *spirv.Module) {
	fmt.Fprintf(w, "; %s\n", path)
	fmt.Fprintf(w, "; Version: %s\n", m.Header.Version)
	fmt.Fprintf(w, "; Generator: 0x%08X\n", m.Header.Generator)
	fmt.Fprintf(w, "; Bound: %d\n", m.Header.Bound)

	for _, c := range m.Capabilities {
		fmt.Fprintf(w, "capability %s\n", capabilityName(c))
	}

	for _, ep := range m.EntryPoints {
		st := "-"
		if s, ok := ep.Stage(); ok {
			st = s.String()
		}
		fmt.Fprintf(w, "entry %q model=%s stage=%s\n", ep.Name, ep.Model, st)
		md := ep.Modes
		for _, r := range md.Raw {
			fmt.Fprintf(w, "  mode %s\n", r)
		}
		if md.HasOutputVertices() {
			fmt.Fprintf(w, "  output_vertices %d\n", md.OutputVertices)
		}
		if md.LocalSize != [3]uint32{} {
			fmt.Fprintf(w, "  local_size %d %d %d\n", md.LocalSize[0], md.LocalSize[1], md.LocalSize[2])
		}
	}
}
