package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/modelviewer/internal/engine/input"
)

// PollEvents drains the SDL queue into in, replacing its previous events.
func (w *Window) PollEvents(in *input.Input) {
	in.Reset()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			in.Push(input.Event{Type: input.EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				in.Push(input.Event{
					Type:       input.EventWindowResize,
					Width:      int(e.Data1),
					Height:     int(e.Data2),
					PixelRatio: w.PixelRatio(),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			typ := input.EventKeyDown
			if e.Type == sdl.KEYUP {
				typ = input.EventKeyUp
			}
			in.Push(input.Event{Type: typ, Key: translateKey(e.Keysym.Scancode)})

		case *sdl.MouseMotionEvent:
			ev := input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DeltaX: float32(e.XRel),
				DeltaY: float32(e.YRel),
			}
			switch {
			case e.State&sdl.ButtonLMask() != 0:
				ev.Dragged = input.ButtonLeft
			case e.State&sdl.ButtonRMask() != 0:
				ev.Dragged = input.ButtonRight
			case e.State&sdl.ButtonMMask() != 0:
				ev.Dragged = input.ButtonMiddle
			}
			in.Push(ev)

		case *sdl.MouseButtonEvent:
			typ := input.EventMouseDown
			if e.Type == sdl.MOUSEBUTTONUP {
				typ = input.EventMouseUp
			}
			in.Push(input.Event{
				Type:   typ,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: translateButton(e.Button),
			})

		case *sdl.MouseWheelEvent:
			dy := float32(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				dy = -dy
			}
			in.Push(input.Event{Type: input.EventMouseWheel, WheelY: dy})
		}
	}
}

func translateKey(sc sdl.Scancode) input.Key {
	switch sc {
	case sdl.SCANCODE_ESCAPE:
		return input.KeyEscape
	case sdl.SCANCODE_F12:
		return input.KeyF12
	case sdl.SCANCODE_R:
		return input.KeyR
	default:
		return input.KeyUnknown
	}
}

func translateButton(b uint8) input.MouseButton {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return input.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return input.ButtonRight
	default:
		return input.ButtonNone
	}
}
