package creation

import (
	"fmt"
	"slices"

	"github.com/gogpu/shaderobj/object"
)

// Build returns the shader records for a batch that validated cleanly.
// handles must be index-aligned with infos. Linked descriptors reference
// every other linked shader of the batch as a peer.
func Build(infos []object.CreateInfo, handles []object.Handle) ([]*object.Shader, error) {
	if len(handles) != len(infos) {
		return nil, fmt.Errorf("creation: %d handles for %d descriptors", len(handles), len(infos))
	}

	var linked []object.Peer
	for i := range infos {
		if infos[i].Linked() {
			linked = append(linked, object.Peer{Handle: handles[i], Stage: infos[i].Stage})
		}
	}

	shaders := make([]*object.Shader, len(infos))
	for i := range infos {
		info := &infos[i]
		s := &object.Shader{
			Handle:             handles[i],
			Stage:              info.Stage,
			NextStage:          info.NextStage,
			Flags:              info.Flags,
			CodeType:           info.CodeType,
			Code:               slices.Clone(info.Code),
			EntryPoint:         info.EntryPoint,
			PushConstantRanges: slices.Clone(info.PushConstantRanges),
			SetLayouts:         slices.Clone(info.SetLayouts),
		}
		if info.Linked() {
			for _, p := range linked {
				if p.Handle != handles[i] {
					s.Linked = append(s.Linked, p)
				}
			}
		}
		shaders[i] = s
	}
	return shaders, nil
}
