package framesync

import (
	"image/color"

	"github.com/akmonengine/framesync/convention"
	"github.com/go-gl/mathgl/mgl32"
)

// Key is a renderer key code (raylib KEY_* values in the demo)
type Key int32

// Input is the edge-triggered keyboard of the render front end
type Input interface {
	// KeyPressed reports whether key went down since the previous frame
	KeyPressed(key Key) bool
}

// Mesh names a mesh owned by the renderer
type Mesh uint8

const (
	MeshCube Mesh = iota
)

// Renderer draws the synchronised body. It must not touch the physics world.
type Renderer interface {
	// Representation is the rotation encoding its drawing primitive consumes
	Representation() convention.Representation
	DrawTransformedMesh(mesh Mesh, transform convention.Drawable, scale mgl32.Vec3, tint color.RGBA)
}

// Binding attaches a command source to a key
type Binding struct {
	Name   string
	Key    Key
	Source CommandSource
}
