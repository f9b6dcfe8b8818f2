// Package shaderobj validates the use of shader objects: stages compiled
// and bound individually instead of through monolithic pipelines.
//
// A [Device] owns the enabled capabilities, the shader handle table and
// the diagnostics sink. Every call validates first and is suppressed when
// it reported any violation, so a rejected create makes no objects and a
// rejected bind leaves the command buffer unchanged.
//
// Example:
//
//	dev := shaderobj.NewDevice(enabled, shaderobj.WithSink(&collector))
//	handles, _, err := dev.CreateShaders(infos)
//	cb := dev.NewCommandBuffer(caps.QueueGraphics)
//	cb.Begin()
//	cb.BeginRendering()
//	cb.BindShaders([]stage.Stage{stage.Vertex, stage.Fragment}, handles)
//	cb.Draw(draw.CmdDraw)
//
// The subpackages can also be used on their own: [creation.ValidateBatch],
// [binding.ValidateBind] and [draw.Validate] are pure functions over their
// inputs.
package shaderobj

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/creation"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/spirv"
)

// Option configures a Device.
type Option func(*Device)

// WithSink adds a sink that receives every violation the device reports.
// Violations are always logged at warn level as well.
func WithSink(s diag.Sink) Option {
	return func(d *Device) { d.sinks = append(d.sinks, s) }
}

// WithProvider replaces the SPIR-V metadata provider. A nil provider skips
// entry-point checks.
func WithProvider(p creation.MetadataProvider) Option {
	return func(d *Device) { d.provider = p }
}

// Device is the validation state shared by every command buffer.
// It is safe for concurrent use.
type Device struct {
	enabled  caps.Enabled
	provider creation.MetadataProvider
	table    *object.Table
	sinks    []diag.Sink
	sink     diag.Sink
	nextCB   atomic.Uint64
}

// NewDevice returns a device with the given capabilities enabled. Limits
// left at zero take their [caps.DefaultLimits] value.
func NewDevice(enabled caps.Enabled, opts ...Option) *Device {
	enabled.Limits = enabled.Limits.WithDefaults()
	d := &Device{
		enabled:  enabled,
		provider: spirv.Provider{},
		table:    object.NewTable(),
	}
	for _, opt := range opts {
		opt(d)
	}
	logSink := diag.SinkFunc(func(v diag.Violation) {
		diag.NewLogSink(Logger()).WithLevel(slog.LevelWarn).Report(v)
	})
	d.sink = diag.Tee(append([]diag.Sink{logSink}, d.sinks...)...)
	return d
}

// Enabled returns the capabilities the device was created with.
func (d *Device) Enabled() caps.Enabled {
	return d.enabled
}

// Shader returns the shader object for h.
func (d *Device) Shader(h object.Handle) (*object.Shader, bool) {
	return d.table.Resolve(h)
}

// ShaderCount returns the number of live shader objects.
func (d *Device) ShaderCount() int {
	return d.table.Len()
}

// report forwards vs to the sinks and reports whether the call may proceed.
func (d *Device) report(vs []diag.Violation) bool {
	for _, v := range vs {
		d.sink.Report(v)
	}
	return len(vs) == 0
}

// CreateShaders validates a batch and, when it is clean, creates one shader
// object per descriptor. The returned handles are index-aligned with infos
// and nil when the call was suppressed.
func (d *Device) CreateShaders(infos []object.CreateInfo) ([]object.Handle, []diag.Violation, error) {
	res, err := creation.ValidateBatch(infos, d.enabled, d.provider)
	if err != nil {
		return nil, nil, fmt.Errorf("create shaders: %w", err)
	}
	Logger().Debug("create shaders", "count", len(infos), "violations", len(res.Violations))
	if !d.report(res.Violations) {
		return nil, res.Violations, nil
	}

	handles := d.table.Reserve(len(infos))
	shaders, err := creation.Build(infos, handles)
	if err != nil {
		return nil, nil, fmt.Errorf("create shaders: %w", err)
	}
	for _, s := range shaders {
		if err := d.table.Insert(s); err != nil {
			return nil, nil, fmt.Errorf("create shaders: %w", err)
		}
	}
	return handles, nil, nil
}

// DestroyShader destroys h. Destroying the null handle does nothing.
// Unknown handles are an error rather than a violation.
func (d *Device) DestroyShader(h object.Handle) ([]diag.Violation, error) {
	const fn = "vkDestroyShaderEXT"
	var vs []diag.Violation
	obj := diag.Object{Kind: diag.ObjectShader, Handle: uint64(h)}

	if !d.enabled.ShaderObject {
		vs = append(vs, diag.New("VUID-vkDestroyShaderEXT-None-08481", diag.CategoryCapability, diag.At(fn),
			"the shaderObject feature is not enabled.").WithObjects(obj))
	}
	if h != object.Null && d.table.InUse(h) {
		vs = append(vs, diag.New("VUID-vkDestroyShaderEXT-shader-08482", diag.CategoryState, diag.At(fn).Field("shader"),
			"0x%x is still bound in a command buffer.", uint64(h)).WithObjects(obj))
	}
	if !d.report(vs) || h == object.Null {
		return vs, nil
	}
	if err := d.table.Destroy(h); err != nil {
		return nil, fmt.Errorf("destroy shader 0x%x: %w", uint64(h), err)
	}
	Logger().Debug("destroy shader", "shader", uint64(h))
	return nil, nil
}

// ShaderBinaryData returns a copy of the code h was created from.
func (d *Device) ShaderBinaryData(h object.Handle) ([]byte, []diag.Violation, error) {
	if !d.enabled.ShaderObject {
		v := diag.New("VUID-vkGetShaderBinaryDataEXT-None-08461", diag.CategoryCapability, diag.At("vkGetShaderBinaryDataEXT"),
			"the shaderObject feature is not enabled.").
			WithObjects(diag.Object{Kind: diag.ObjectShader, Handle: uint64(h)})
		d.report([]diag.Violation{v})
		return nil, []diag.Violation{v}, nil
	}
	s, ok := d.table.Resolve(h)
	if !ok {
		return nil, nil, fmt.Errorf("shader binary data 0x%x: %w", uint64(h), object.ErrUnknownHandle)
	}
	return append([]byte(nil), s.Code...), nil, nil
}
