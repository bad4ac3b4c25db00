package pathoram

import "errors"

// EmptyBlockID marks a block slot as empty/dummy, per the wire contract's
// index = -1 sentinel.
const EmptyBlockID = -1

var (
	ErrInvalidConfig    = errors.New("invalid PathORAM configuration")
	ErrInvalidBlockID   = errors.New("invalid block ID")
	ErrInvalidDataSize  = errors.New("data size doesn't match block size")
	ErrStashOverflow    = errors.New("stash overflow")
	ErrEncryptionFailed = errors.New("block encryption failed")
	ErrDecryptionFailed = errors.New("block decryption failed")
	ErrPoisoned         = errors.New("client state poisoned by a prior failed access")
)
