// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SceneVertexShader transforms lit meshes and their shadow coordinates.
//
//go:embed scene.vert
var SceneVertexShader string

// SceneFragmentShader shades metal/roughness/clearcoat surfaces.
//
//go:embed scene.frag
var SceneFragmentShader string

// DepthVertexShader renders shadow casters from the light.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader writes depth only.
//
//go:embed depth.frag
var DepthFragmentShader string

// FullscreenVertexShader draws a screen-covering triangle without buffers.
//
//go:embed fullscreen.vert
var FullscreenVertexShader string

// BrightFragmentShader keeps pixels above the bloom threshold.
//
//go:embed bright.frag
var BrightFragmentShader string

// BlurFragmentShader is a one-axis Gaussian blur.
//
//go:embed blur.frag
var BlurFragmentShader string

// BloomCompositeFragmentShader adds the weighted blur mips to the frame.
//
//go:embed bloom_composite.frag
var BloomCompositeFragmentShader string

// FilmFragmentShader adds noise and scanlines.
//
//go:embed film.frag
var FilmFragmentShader string

// PresentFragmentShader copies to the screen with gamma encoding.
//
//go:embed present.frag
var PresentFragmentShader string
