package treematch

// Options configures the two phases of Match.
type Options struct {
	// MinHeight filters top-down candidates: a subtree shorter than this is
	// never anchored in phase 1 (default 1; set to 0 for small languages
	// like JSON where every node is significant).
	MinHeight int
	// SimThreshold is the minimum Dice similarity phase 2 requires to accept
	// a bottom-up candidate pairing (default 0.5).
	SimThreshold float64
	// MaxRecoverySize bounds the combined node count of a matched pair's
	// subtrees for the optional RTED-style leaf-recovery step, keeping it
	// polynomial (default 100).
	MaxRecoverySize int
	// UseRTED enables the bounded recovery step after a bottom-up match.
	UseRTED bool
}

// Default returns the primary matcher's configuration.
func Default() Options {
	return Options{MinHeight: 1, SimThreshold: 0.5, MaxRecoverySize: 100, UseRTED: true}
}

// Auxiliary returns the cheaper configuration the cascade switches to for
// large inputs: same MinHeight, RTED disabled. No pre-pass or
// commutative-parent reconciliation step uses it.
func Auxiliary() Options {
	o := Default()
	o.UseRTED = false
	return o
}
