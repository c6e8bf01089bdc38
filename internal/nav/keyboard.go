package nav

// Key is a keyboard key the controller understands.
type Key int

const (
	KeyOther Key = iota
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeySpace
	KeyHome
	KeyEnd
	KeyAlt
	KeyControl
)

// keyboardController tracks keyboard mode and the focused item.
//
// Tab and Escape are handled at document scope so they work wherever focus
// is; everything else only applies inside the open menu.
type keyboardController struct {
	n *Navigator

	// mouseListener is the one-shot "mouse move leaves keyboard mode" hook.
	mouseListener bool

	blurPending bool
	blurGen     uint64
}

func (k *keyboardController) documentKey(key Key) bool {
	switch key {
	case KeyTab:
		if !k.n.store.Peek().KeyboardMode {
			k.n.store.BatchUpdate(Patch{KeyboardMode: boolPtr(true)})
		}
		return true
	case KeyEscape:
		if k.n.store.Peek().IsOpen {
			k.n.close()
			return true
		}
	}
	return false
}

func (k *keyboardController) menuKey(key Key) bool {
	st := k.n.store.Peek()
	if !st.IsOpen {
		return k.documentKey(key)
	}
	switch key {
	case KeyUp, KeyLeft:
		k.focus(k.n.items.step(st.FocusedItem, -1).ID)
	case KeyDown, KeyRight:
		k.focus(k.n.items.step(st.FocusedItem, 1).ID)
	case KeyHome:
		k.focus(k.n.items.first().ID)
	case KeyEnd:
		k.focus(k.n.items.last().ID)
	case KeyEnter, KeySpace:
		if st.FocusedItem == "" {
			return false
		}
		k.n.navigate(st.FocusedItem)
	default:
		return k.documentKey(key)
	}
	return true
}

func (k *keyboardController) keyUp(key Key) {
	if key != KeyAlt && key != KeyControl {
		return
	}
	// Registered at most once; a second keyup before any mouse move is a no-op.
	k.mouseListener = true
}

func (k *keyboardController) mouseMove() {
	if !k.mouseListener {
		return
	}
	k.mouseListener = false
	if k.n.store.Peek().KeyboardMode {
		k.n.store.BatchUpdate(Patch{KeyboardMode: boolPtr(false)})
	}
}

func (k *keyboardController) focus(id ItemID) {
	k.blurPending = false
	if k.n.store.Peek().FocusedItem == id {
		return
	}
	k.n.store.BatchUpdate(Patch{FocusedItem: idPtr(id)})
}

// focusIn mirrors native focus entering an item of the menu container.
func (k *keyboardController) focusIn(id ItemID) {
	if !k.n.items.has(id) {
		return
	}
	k.focus(id)
}

// focusOut defers the check so a focus move between two items of the same
// container does not clear the focused item.
func (k *keyboardController) focusOut() {
	k.blurPending = true
	k.blurGen++
	gen := k.blurGen
	k.n.sched.Defer(func() {
		if k.n.destroyed.Load() || !k.blurPending || k.blurGen != gen {
			return
		}
		k.blurPending = false
		if el := k.n.element; el != nil && el.ContainsFocus() {
			return
		}
		if k.n.store.Peek().FocusedItem != "" {
			k.n.store.BatchUpdate(Patch{FocusedItem: idPtr("")})
		}
	})
}

func (k *keyboardController) reset() {
	k.mouseListener = false
	k.blurPending = false
	k.blurGen++
}
