//go:build !linux

package gpio

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, ErrUnsupported
}

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// InputLine is not available on non-Linux platforms.
type InputLine struct{}

// Input returns an error on non-Linux platforms.
func (c *Chip) Input(pin int) (*InputLine, error) {
	return nil, ErrUnsupported
}

// Value is not implemented on non-Linux platforms.
func (i *InputLine) Value() (bool, error) {
	return false, ErrUnsupported
}

// Close is a no-op on non-Linux platforms.
func (i *InputLine) Close() error {
	return nil
}

// OutputLine is not available on non-Linux platforms.
type OutputLine struct{}

// Output returns an error on non-Linux platforms.
func (c *Chip) Output(pin int) (*OutputLine, error) {
	return nil, ErrUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *OutputLine) Set(high bool) error {
	return ErrUnsupported
}

// Close is a no-op on non-Linux platforms.
func (o *OutputLine) Close() error {
	return nil
}

// Watch returns an error on non-Linux platforms.
func (c *Chip) Watch(pin int, opts WatchOptions) (Subscription, error) {
	return nil, ErrUnsupported
}
