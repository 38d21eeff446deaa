// Package model defines the wire records exchanged with the irrigation
// controller: pins, schedules, status and the controller's date encoding.
//
// Optional fields are pointers. A nil pointer means "not reported by the
// controller"; decoding never substitutes defaults, so later reconciliation
// can tell an absent field from an explicit false.
package model
