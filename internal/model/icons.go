package model

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconStart    = "●" // Sentinel start node
	IconEnd      = "◉" // Sentinel end node
	IconStartAct = "▸" // Activity that begins cases
	IconEndAct   = "◂" // Activity that ends cases
	IconFiltered = "⊘" // Activity excluded by filter
	IconError    = "✗" // Thin X (error states)
	IconOK       = "✓" // Step complete
	IconPending  = "·" // Step not reached yet
	IconActive   = "◆" // Current workflow step
)
