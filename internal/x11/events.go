package x11

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/orionwm/orion/internal/wm"
)

// Run pumps events from the server into the returned channel until ctx is
// done or the connection is lost; either way the channel is closed.
// Request errors that arrive asynchronously are logged and dropped.
func (s *Session) Run(ctx context.Context) <-chan *wm.Event {
	out := make(chan *wm.Event, 64)
	go func() {
		defer close(out)
		for {
			ev, xerr := s.conn.WaitForEvent()
			if ev == nil && xerr == nil {
				s.log.Warn("connection to the X server lost")
				return
			}
			if xerr != nil {
				entry := s.log.WithField("error", xerr.Error())
				if isRace(xerr) {
					entry.Debug("request on a vanished window")
				} else {
					entry.Warn("asynchronous request error")
				}
				continue
			}
			select {
			case out <- Decode(ev):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// eventName turns xproto.KeyPressEvent into "KeyPress".
func eventName(ev xgb.Event) string {
	name := fmt.Sprintf("%T", ev)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "Event")
}

// Decode converts a server event. Event kinds the manager has no use for
// keep only their name.
func Decode(ev xgb.Event) *wm.Event {
	out := &wm.Event{Name: eventName(ev)}
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
	case xproto.KeyReleaseEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
	case xproto.ButtonPressEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
	case xproto.ButtonReleaseEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
	case xproto.MotionNotifyEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
	case xproto.EnterNotifyEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
		out.Mode = e.Mode
	case xproto.LeaveNotifyEvent:
		decodeInput(out, uint32(e.Detail), e.Event, e.Child, e.RootX, e.RootY, e.State)
		out.Mode = e.Mode
	case xproto.FocusInEvent:
		out.Fields = wm.HasEvent
		out.EventWin, out.Detail, out.Mode = wm.XID(e.Event), uint32(e.Detail), e.Mode
	case xproto.FocusOutEvent:
		out.Fields = wm.HasEvent
		out.EventWin, out.Detail, out.Mode = wm.XID(e.Event), uint32(e.Detail), e.Mode
	case xproto.ConfigureNotifyEvent:
		out.Fields = wm.HasWindow | wm.HasEvent
		out.Window, out.EventWin = wm.XID(e.Window), wm.XID(e.Event)
		out.X, out.Y = int(e.X), int(e.Y)
		out.Width, out.Height, out.Border = int(e.Width), int(e.Height), int(e.BorderWidth)
	case xproto.ConfigureRequestEvent:
		out.Fields = wm.HasWindow
		out.Window = wm.XID(e.Window)
		out.ValueMask = wm.ChangeMask(e.ValueMask)
		out.X, out.Y = int(e.X), int(e.Y)
		out.Width, out.Height, out.Border = int(e.Width), int(e.Height), int(e.BorderWidth)
		out.Sibling, out.StackMode = wm.XID(e.Sibling), e.StackMode
	case xproto.MapRequestEvent:
		out.Fields = wm.HasWindow
		out.Window = wm.XID(e.Window)
	case xproto.MapNotifyEvent:
		out.Fields = wm.HasWindow | wm.HasEvent
		out.Window, out.EventWin = wm.XID(e.Window), wm.XID(e.Event)
	case xproto.UnmapNotifyEvent:
		out.Fields = wm.HasWindow | wm.HasEvent
		out.Window, out.EventWin = wm.XID(e.Window), wm.XID(e.Event)
		out.FromConfigure = e.FromConfigure
	case xproto.DestroyNotifyEvent:
		out.Fields = wm.HasWindow | wm.HasEvent
		out.Window, out.EventWin = wm.XID(e.Window), wm.XID(e.Event)
	case xproto.CreateNotifyEvent:
		out.Fields = wm.HasWindow
		out.Window = wm.XID(e.Window)
	case xproto.ReparentNotifyEvent:
		out.Fields = wm.HasWindow | wm.HasEvent
		out.Window, out.EventWin = wm.XID(e.Window), wm.XID(e.Event)
	case xproto.PropertyNotifyEvent:
		out.Fields = wm.HasWindow
		out.Window, out.Atom = wm.XID(e.Window), uint32(e.Atom)
		out.Detail = uint32(e.State)
	case xproto.ClientMessageEvent:
		out.Fields = wm.HasWindow
		out.Window, out.MessageType = wm.XID(e.Window), uint32(e.Type)
		if e.Format == 32 {
			copy(out.Data[:], e.Data.Data32)
		}
	case xproto.MappingNotifyEvent:
		out.Request, out.FirstKeycode, out.Count = e.Request, uint8(e.FirstKeycode), int(e.Count)
	case xproto.ExposeEvent:
		out.Fields = wm.HasWindow
		out.Window = wm.XID(e.Window)
	case xproto.NoExposureEvent:
		out.Fields = wm.HasDrawable
		out.Drawable = wm.XID(e.Drawable)
	case xproto.GraphicsExposureEvent:
		out.Fields = wm.HasDrawable
		out.Drawable = wm.XID(e.Drawable)
	}
	return out
}

func decodeInput(out *wm.Event, detail uint32, event, child xproto.Window, rootX, rootY int16, state uint16) {
	out.Fields = wm.HasEvent
	out.EventWin, out.Child = wm.XID(event), wm.XID(child)
	out.Detail, out.State = detail, state
	out.RootX, out.RootY = int(rootX), int(rootY)
}
