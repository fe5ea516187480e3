package types

import "math/big"

// BigInt is the wide-integer type used wherever an event or external
// interface needs to carry an amount without pulling in the wad package
// (which trades in fixed-width uint256, not the variable-width big.Int
// events are rendered with for JSON/logging).
type BigInt = big.Int
