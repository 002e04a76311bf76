package types

// ------------------------
// Fade (ramp + companion)
// ------------------------

type FadeInfo struct {
	Platform  string `json:"platform"`
	PeriodMs  uint32 `json:"period_ms"`
	Max       uint8  `json:"max"`
	Threshold uint16 `json:"threshold"`
}

// FadeValue is published on every direction change.
type FadeValue struct {
	Duty      uint8 `json:"duty"`      // 0..Max
	Direction int8  `json:"direction"` // +1 rising, -1 falling
	Companion bool  `json:"companion"` // on while rising
	TS        int64 `json:"ts_ms"`
}

type FadeStats struct {
	Events uint32 `json:"events"`
	Flips  uint32 `json:"flips"`
	Drops  uint32 `json:"drops"`
}
