package wm

// HookKind enumerates the notifications the manager publishes.
type HookKind int

const (
	HookClientNew HookKind = iota
	HookClientManaged
	HookClientKilled
	HookFocusChange
	HookFloatChange
	HookSetGroup
	HookLayoutChange
	HookUrgentChange
	HookAddGroup
	HookDelGroup
	HookScreenChange
)

var hookNames = map[HookKind]string{
	HookClientNew:     "client_new",
	HookClientManaged: "client_managed",
	HookClientKilled:  "client_killed",
	HookFocusChange:   "focus_change",
	HookFloatChange:   "float_change",
	HookSetGroup:      "setgroup",
	HookLayoutChange:  "layout_change",
	HookUrgentChange:  "client_urgent_hint_changed",
	HookAddGroup:      "addgroup",
	HookDelGroup:      "delgroup",
	HookScreenChange:  "screen_change",
}

func (k HookKind) String() string {
	if name, ok := hookNames[k]; ok {
		return name
	}
	return "unknown"
}

// HookEvent is passed to subscribers. Unused fields are nil.
type HookEvent struct {
	Kind   HookKind
	Window *Window
	Group  *Group
	Screen *Screen
}

// HookFunc receives hook events on the reactor goroutine.
type HookFunc func(HookEvent)

// hooks is an explicit subscriber list per kind, owned by the manager.
type hooks struct {
	subs map[HookKind][]HookFunc
}

func (h *hooks) subscribe(kind HookKind, fn HookFunc) {
	if h.subs == nil {
		h.subs = make(map[HookKind][]HookFunc)
	}
	h.subs[kind] = append(h.subs[kind], fn)
}

func (h *hooks) fire(ev HookEvent) {
	for _, fn := range h.subs[ev.Kind] {
		fn(ev)
	}
}
