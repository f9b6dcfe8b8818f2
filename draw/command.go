// Package draw validates the bound shader state of a command buffer
// immediately before a draw, mesh draw or dispatch is recorded.
package draw

import (
	"strings"

	"github.com/gogpu/shaderobj/stage"
)

// Command is a draw or dispatch command.
type Command uint8

const (
	CmdDraw Command = iota
	CmdDrawIndexed
	CmdDrawIndirect
	CmdDrawIndexedIndirect
	CmdDrawMeshTasks
	CmdDrawMeshTasksIndirect
	CmdDispatch
	CmdDispatchIndirect
)

var commandNames = [...]struct{ api, short string }{
	CmdDraw:                  {"vkCmdDraw", "draw"},
	CmdDrawIndexed:           {"vkCmdDrawIndexed", "draw_indexed"},
	CmdDrawIndirect:          {"vkCmdDrawIndirect", "draw_indirect"},
	CmdDrawIndexedIndirect:   {"vkCmdDrawIndexedIndirect", "draw_indexed_indirect"},
	CmdDrawMeshTasks:         {"vkCmdDrawMeshTasksEXT", "draw_mesh_tasks"},
	CmdDrawMeshTasksIndirect: {"vkCmdDrawMeshTasksIndirectEXT", "draw_mesh_tasks_indirect"},
	CmdDispatch:              {"vkCmdDispatch", "dispatch"},
	CmdDispatchIndirect:      {"vkCmdDispatchIndirect", "dispatch_indirect"},
}

// String returns the API function name, which prefixes every VUID the
// command reports.
func (c Command) String() string {
	if int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c].api
}

// ParseCommand accepts either the short snake-case name ("draw_indexed")
// or the API function name.
func ParseCommand(name string) (Command, bool) {
	name = strings.TrimSpace(name)
	for i, n := range commandNames {
		if n.short == strings.ToLower(name) || n.api == name {
			return Command(i), true
		}
	}
	return 0, false
}

// BindPoint returns the bind point the command executes at.
func (c Command) BindPoint() stage.BindPoint {
	if c.IsDispatch() {
		return stage.BindPointCompute
	}
	return stage.BindPointGraphics
}

// IsMesh reports whether c is a mesh-dispatch draw.
func (c Command) IsMesh() bool {
	return c == CmdDrawMeshTasks || c == CmdDrawMeshTasksIndirect
}

// IsDispatch reports whether c is a compute dispatch.
func (c Command) IsDispatch() bool {
	return c == CmdDispatch || c == CmdDispatchIndirect
}

func (c Command) vuid(suffix string) string {
	return "VUID-" + c.String() + "-" + suffix
}
