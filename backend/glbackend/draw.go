package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/phanxgames/canopy"
)

const (
	vertexBytes   = canopy.VertexStride * 4
	instanceBytes = canopy.InstanceStride * 4
)

// DrawIndexed implements canopy.Backend.
func (b *Backend) DrawIndexed(vertices, indices canopy.Buffer, count int) error {
	if err := b.bindGeometry(vertices, indices, count); err != nil {
		return err
	}
	gl.DisableVertexAttribArray(attrInstance)
	gl.DisableVertexAttribArray(attrColor)
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, nil)
	gl.BindVertexArray(0)
	return nil
}

// DrawInstanced implements canopy.Backend.
func (b *Backend) DrawInstanced(vertices, indices canopy.Buffer, count int, instances canopy.Buffer, n int) error {
	inst, ok := b.buffers[instances]
	if !ok || inst.element {
		return fmt.Errorf("glbackend: draw instanced: instances %d: %w", instances, ErrUnknownHandle)
	}
	if n*canopy.InstanceStride > len(inst.data) {
		return fmt.Errorf("glbackend: draw instanced: %d instances in %d floats: %w",
			n, len(inst.data), canopy.ErrInvalidArgument)
	}
	if n == 0 {
		return nil
	}
	if err := b.bindGeometry(vertices, indices, count); err != nil {
		return err
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, inst.id)
	gl.EnableVertexAttribArray(attrInstance)
	gl.VertexAttribPointerWithOffset(attrInstance, 4, gl.FLOAT, false, instanceBytes, 0)
	gl.VertexAttribDivisor(attrInstance, 1)
	gl.EnableVertexAttribArray(attrColor)
	gl.VertexAttribPointerWithOffset(attrColor, 4, gl.FLOAT, false, instanceBytes, 16)
	gl.VertexAttribDivisor(attrColor, 1)

	gl.DrawElementsInstanced(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, nil, int32(n))

	gl.VertexAttribDivisor(attrInstance, 0)
	gl.VertexAttribDivisor(attrColor, 0)
	gl.BindVertexArray(0)
	return nil
}

// bindGeometry binds the shared vertex array with vertices as the quad
// stream and indices as the element buffer.
func (b *Backend) bindGeometry(vertices, indices canopy.Buffer, count int) error {
	vb, ok := b.buffers[vertices]
	if !ok || vb.element {
		return fmt.Errorf("glbackend: draw: vertices %d: %w", vertices, ErrUnknownHandle)
	}
	ib, ok := b.buffers[indices]
	if !ok || !ib.element {
		return fmt.Errorf("glbackend: draw: indices %d: %w", indices, ErrUnknownHandle)
	}
	if count < 0 || count > ib.count {
		return fmt.Errorf("glbackend: draw: %d indices of %d: %w", count, ib.count, canopy.ErrInvalidArgument)
	}

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.id)
	gl.EnableVertexAttribArray(attrPosition)
	gl.VertexAttribPointerWithOffset(attrPosition, 2, gl.FLOAT, false, vertexBytes, 0)
	gl.EnableVertexAttribArray(attrUV)
	gl.VertexAttribPointerWithOffset(attrUV, 2, gl.FLOAT, false, vertexBytes, 8)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.id)
	return nil
}
