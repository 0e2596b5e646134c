package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/compositor"
	"github.com/Faultbox/modelviewer/internal/engine/lighting"
	"github.com/Faultbox/modelviewer/internal/engine/model"
	"github.com/Faultbox/modelviewer/internal/engine/shadow"
)

const shadowTextureUnit = 4

// DrawScene renders the shadow map, then the lit scene into dst.
func (r *GL) DrawScene(dst compositor.Target, f *compositor.Frame) error {
	out, err := asTarget(dst)
	if err != nil {
		return err
	}
	view := f.Scene

	sun, hasSun := view.Lights.Directional()
	lightVP := mgl32.Ident4()
	castShadows := hasSun && sun.CastShadow
	if castShadows {
		lightVP = shadow.LightMatrix(sun.Direction(), view.Bounds())
		r.renderShadowMap(f, lightVP)
	}

	out.Bind()
	bg := srgbToLinear(view.Background)
	out.Clear(bg[0], bg[1], bg[2], 1)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)

	p := r.sceneProg
	p.Use()
	p.SetMat4("uViewProj", f.Projection.Mul4(f.View))
	p.SetVec3("uCameraPos", f.CameraPos)
	p.SetMat4("uLightViewProj", lightVP)
	p.SetVec3("uAmbient", linearAmbient(view.Lights))

	p.SetInt("uSunEnabled", boolInt(hasSun))
	if hasSun {
		p.SetVec3("uSunDir", sun.Direction())
		p.SetVec3("uSunColor", srgbToLinear(sun.Color).Mul(sun.Intensity))
	}

	points := lighting.PackPoints(view.Lights)
	for i, pl := range view.Lights.Points() {
		c := srgbToLinear(pl.Color).Mul(pl.Intensity)
		copy(points.Colors[i*3:], c[:])
	}
	p.SetInt("uPointCount", points.Count)
	p.SetVec3Array("uPointPositions", points.Positions, points.Count)
	p.SetVec3Array("uPointColors", points.Colors, points.Count)
	p.SetFloatArray("uPointRanges", points.Ranges, points.Count)

	r.shadowMap.BindTexture(gl.TEXTURE0 + shadowTextureUnit)
	p.SetInt("uShadowMap", shadowTextureUnit)
	p.SetFloat("uShadowTexel", r.shadowMap.Texel())

	view.Walk(func(mesh *model.Mesh, world mgl32.Mat4, _ *model.Model) {
		m0, m1 := mesh.Material.Uniforms()
		base := srgbToLinear(m0.Vec3())
		p.SetVec4("uMaterial0", base.Vec4(m0[3]))
		p.SetVec4("uMaterial1", m1)
		p.SetInt("uReceiveShadow", boolInt(castShadows && mesh.ReceiveShadow))
		p.SetMat4("uModel", world)
		normal := world.Mat3().Inv().Transpose()
		gl.UniformMatrix3fv(p.Uniform("uNormalMatrix"), 1, false, &normal[0])
		r.meshes.get(mesh).draw()
	})
	gl.BindVertexArray(0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("scene draw: gl error 0x%x", e)
	}
	return nil
}

func (r *GL) renderShadowMap(f *compositor.Frame, lightVP mgl32.Mat4) {
	p := r.depthProg
	r.shadowMap.Render(func() {
		p.Use()
		p.SetMat4("uLightViewProj", lightVP)
		f.Scene.Walk(func(mesh *model.Mesh, world mgl32.Mat4, _ *model.Model) {
			if !mesh.CastShadow {
				return
			}
			p.SetMat4("uModel", world)
			r.meshes.get(mesh).draw()
		})
		gl.BindVertexArray(0)
	})
}

// DrawBloom extracts highlights from src, blurs them down the mip chain and
// writes src plus the weighted blur into dst.
func (r *GL) DrawBloom(src, dst compositor.Target, chain *compositor.BloomChain, params compositor.BloomParams) error {
	in, err := asTarget(src)
	if err != nil {
		return err
	}
	out, err := asTarget(dst)
	if err != nil {
		return err
	}
	bright, err := asTarget(chain.Bright)
	if err != nil {
		return err
	}

	// 1. bright pass
	bright.Bind()
	r.brightProg.Use()
	bindTexture(0, in.ColorTexture())
	r.brightProg.SetInt("uSource", 0)
	r.brightProg.SetFloat("uThreshold", params.Threshold)
	r.brightProg.SetFloat("uSmoothWidth", brightSmoothWidth)
	r.drawFullscreen()

	// 2. separable blur per mip, each level reading the previous one
	r.blurProg.Use()
	r.blurProg.SetInt("uSource", 0)
	input := bright
	for i := range chain.Horizontal {
		hz, err := asTarget(chain.Horizontal[i])
		if err != nil {
			return err
		}
		vt, err := asTarget(chain.Vertical[i])
		if err != nil {
			return err
		}
		radius := bloomKernelRadii[i%len(bloomKernelRadii)]
		weights := gaussianWeights(radius)
		r.blurProg.SetInt("uKernelRadius", int32(radius))
		r.blurProg.SetFloatArray("uWeights", weights, int32(len(weights)))

		w, h := hz.Size()
		hz.Bind()
		bindTexture(0, input.ColorTexture())
		r.blurProg.SetVec2("uTexelDir", 1/float32(w), 0)
		r.drawFullscreen()

		vt.Bind()
		bindTexture(0, hz.ColorTexture())
		r.blurProg.SetVec2("uTexelDir", 0, 1/float32(h))
		r.drawFullscreen()

		input = vt
	}

	// 3. composite
	out.Bind()
	p := r.bloomProg
	p.Use()
	bindTexture(0, in.ColorTexture())
	p.SetInt("uSource", 0)
	for i, t := range chain.Vertical {
		if i >= compositor.BloomMips {
			break
		}
		vt, _ := asTarget(t)
		bindTexture(uint32(i+1), vt.ColorTexture())
		p.SetInt(fmt.Sprintf("uMip%d", i), int32(i+1))
	}
	factors := mipFactors(params.Radius)
	p.SetFloatArray("uFactors", factors[:], int32(len(factors)))
	p.SetFloat("uStrength", params.Strength)
	r.drawFullscreen()

	return glError("bloom")
}

// DrawFilm writes src with grain and scanlines into dst.
func (r *GL) DrawFilm(src, dst compositor.Target, params compositor.FilmParams, time float32) error {
	in, err := asTarget(src)
	if err != nil {
		return err
	}
	out, err := asTarget(dst)
	if err != nil {
		return err
	}

	out.Bind()
	p := r.filmProg
	p.Use()
	bindTexture(0, in.ColorTexture())
	p.SetInt("uSource", 0)
	p.SetFloat("uTime", time)
	p.SetFloat("uNoiseIntensity", params.NoiseIntensity)
	p.SetFloat("uScanlineIntensity", params.ScanlineIntensity)
	p.SetFloat("uScanlineCount", float32(params.ScanlineCount))
	p.SetInt("uGrayscale", boolInt(params.Grayscale))
	r.drawFullscreen()

	return glError("film")
}

// Present copies src to the default framebuffer.
func (r *GL) Present(src compositor.Target) error {
	in, err := asTarget(src)
	if err != nil {
		return err
	}

	w, h := r.screenW, r.screenH
	if w <= 0 || h <= 0 {
		tw, th := in.Size()
		w, h = int32(tw), int32(th)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, w, h)

	r.presentProg.Use()
	bindTexture(0, in.ColorTexture())
	r.presentProg.SetInt("uSource", 0)
	r.drawFullscreen()

	r.presented = in
	return glError("present")
}

// ReadPixels returns the last presented frame as bottom-up RGBA bytes.
func (r *GL) ReadPixels() ([]byte, int, int, error) {
	if r.presented == nil {
		return nil, 0, 0, fmt.Errorf("no frame presented yet")
	}
	w, h := r.screenW, r.screenH
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("screen size unknown")
	}
	pixels := make([]byte, int(w)*int(h)*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, int(w), int(h), glError("read pixels")
}

// MeshCount returns the number of uploaded meshes.
func (r *GL) MeshCount() int {
	return r.meshes.len()
}

// linearAmbient sums ambient lights in linear space.
func linearAmbient(set lighting.Set) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, l := range set.All() {
		if a, ok := l.(lighting.Ambient); ok {
			sum = sum.Add(srgbToLinear(a.Color).Mul(a.Intensity))
		}
	}
	return sum
}

func glError(stage string) error {
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", stage, e)
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
