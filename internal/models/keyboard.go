package models

// Button is one cell of an interactive reply. Data is what the transport sends back when
// the button is pressed.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
}

// Keyboard is a row-major grid of buttons attached to an outbound message.
type Keyboard [][]Button
