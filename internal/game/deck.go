package game

import "math/rand/v2"

// Card ranks run 1 through 13, standard playing-card ranks without suits.
const (
	MinCard = 1
	MaxCard = 13
)

// drawCard samples a rank uniformly from [MinCard, MaxCard].
//
// math/rand/v2 is deliberately not a secure source. Anyone with code
// execution visibility into this process can predict draws; a deployment
// that cares must swap in an externally seeded or verifiable source (the
// Session takes an injectable draw function for exactly that reason) while
// keeping the uniform 13-rank distribution.
func drawCard() uint8 {
	return uint8(rand.IntN(MaxCard-MinCard+1) + MinCard)
}
