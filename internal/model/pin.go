package model

import "strconv"

// Pin mirrors one entry of GET /api/pins. Number is the hardware address and
// the record's identity. The remaining fields are overlays: nil means the
// controller did not report them, which is not the same as false or empty.
type Pin struct {
	Number    int     `json:"pin"`
	Name      *string `json:"name,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	IsEnabled *bool   `json:"is_enabled,omitempty"`
}

// Label returns the display name, or "Pin N" when none was reported.
func (p Pin) Label() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return "Pin " + strconv.Itoa(p.Number)
}

// Active reports whether the pin is currently energised. Unreported reads as false.
func (p Pin) Active() bool {
	return p.IsActive != nil && *p.IsActive
}

// Enabled reports whether the pin may be driven. Unreported reads as false.
func (p Pin) Enabled() bool {
	return p.IsEnabled != nil && *p.IsEnabled
}

// PinAction is the body of POST /api/pins/{pin}/action. Zero minutes stops the pin.
type PinAction struct {
	DurationMinutes int `json:"duration"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
