package nav

// ItemID identifies a navigation item. The empty ItemID means "none".
type ItemID string

// State is the navigation state published to subscribers.
// It is a value type: every subscriber receives its own copy.
type State struct {
	IsOpen       bool   `json:"is_open"`
	ActiveItem   ItemID `json:"active_item"`
	HoveredItem  ItemID `json:"hovered_item,omitempty"`
	FocusedItem  ItemID `json:"focused_item,omitempty"`
	KeyboardMode bool   `json:"keyboard_mode"`
	IsAnimating  bool   `json:"is_animating"`
}

// Patch is a partial State update. Nil fields are left untouched.
type Patch struct {
	IsOpen       *bool
	ActiveItem   *ItemID
	HoveredItem  *ItemID
	FocusedItem  *ItemID
	KeyboardMode *bool
	IsAnimating  *bool
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.IsOpen == nil && p.ActiveItem == nil && p.HoveredItem == nil &&
		p.FocusedItem == nil && p.KeyboardMode == nil && p.IsAnimating == nil
}

// Merge returns p overlaid with the non-nil fields of later.
func (p Patch) Merge(later Patch) Patch {
	if later.IsOpen != nil {
		p.IsOpen = later.IsOpen
	}
	if later.ActiveItem != nil {
		p.ActiveItem = later.ActiveItem
	}
	if later.HoveredItem != nil {
		p.HoveredItem = later.HoveredItem
	}
	if later.FocusedItem != nil {
		p.FocusedItem = later.FocusedItem
	}
	if later.KeyboardMode != nil {
		p.KeyboardMode = later.KeyboardMode
	}
	if later.IsAnimating != nil {
		p.IsAnimating = later.IsAnimating
	}
	return p
}

// Apply returns s with the patch applied.
func (p Patch) Apply(s State) State {
	if p.IsOpen != nil {
		s.IsOpen = *p.IsOpen
	}
	if p.ActiveItem != nil {
		s.ActiveItem = *p.ActiveItem
	}
	if p.HoveredItem != nil {
		s.HoveredItem = *p.HoveredItem
	}
	if p.FocusedItem != nil {
		s.FocusedItem = *p.FocusedItem
	}
	if p.KeyboardMode != nil {
		s.KeyboardMode = *p.KeyboardMode
	}
	if p.IsAnimating != nil {
		s.IsAnimating = *p.IsAnimating
	}
	return s
}

func boolPtr(b bool) *bool     { return &b }
func idPtr(id ItemID) *ItemID { return &id }
