package llmprovider

import "fmt"

func unknownKindError(kind Kind) error {
	return fmt.Errorf("llmprovider: unrecognized provider kind %q", kind)
}
