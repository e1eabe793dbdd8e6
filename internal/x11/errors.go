package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/orionwm/orion/internal/wm"
)

// isRace reports whether err is one of the errors a window produces when it
// is destroyed between being observed and being queried.
func isRace(err error) bool {
	var (
		window   xproto.WindowError
		drawable xproto.DrawableError
		access   xproto.AccessError
		match    xproto.MatchError
	)
	return errors.As(err, &window) || errors.As(err, &drawable) ||
		errors.As(err, &access) || errors.As(err, &match)
}

// windowErr annotates err with the request and window, turning race errors
// into wm.ErrRace.
func windowErr(op string, win wm.XID, err error) error {
	if err == nil {
		return nil
	}
	if isRace(err) {
		return fmt.Errorf("%w: %s %#x: %v", wm.ErrRace, op, uint32(win), err)
	}
	return fmt.Errorf("%s %#x: %w", op, uint32(win), err)
}
