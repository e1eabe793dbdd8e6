package x11

import (
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xinerama"

	"github.com/orionwm/orion/internal/wm"
)

// Screens returns the physical screens: Xinerama heads when the extension
// is active, else the enabled RandR CRTCs, else the whole root window.
func (s *Session) Screens() ([]wm.Rect, error) {
	if s.xu.ExtInitialized("XINERAMA") {
		heads, err := xinerama.PhysicalHeads(s.xu)
		if err != nil {
			s.log.WithError(err).Debug("xinerama query failed")
		} else if len(heads) > 0 {
			rects := make([]wm.Rect, len(heads))
			for i, h := range heads {
				rects[i] = wm.Rect{X: h.X(), Y: h.Y(), Width: h.Width(), Height: h.Height()}
			}
			return rects, nil
		}
	}

	if rects, err := s.crtcs(); err != nil {
		s.log.WithError(err).Debug("randr query failed")
	} else if len(rects) > 0 {
		return rects, nil
	}

	geom, err := xproto.GetGeometry(s.conn, xproto.Drawable(s.root)).Reply()
	if err != nil {
		return nil, windowErr("GetGeometry", wm.XID(s.root), err)
	}
	return []wm.Rect{{Width: int(geom.Width), Height: int(geom.Height)}}, nil
}

// crtcs lists enabled CRTCs, skipping clones at the same origin.
func (s *Session) crtcs() ([]wm.Rect, error) {
	if err := randr.Init(s.conn); err != nil {
		return nil, err
	}
	resources, err := randr.GetScreenResources(s.conn, s.root).Reply()
	if err != nil {
		return nil, err
	}

	var rects []wm.Rect
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(s.conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		r := wm.Rect{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)}
		if !sameOrigin(rects, r) {
			rects = append(rects, r)
		}
	}
	return rects, nil
}

func sameOrigin(rects []wm.Rect, r wm.Rect) bool {
	for _, o := range rects {
		if o.X == r.X && o.Y == r.Y {
			return true
		}
	}
	return false
}
