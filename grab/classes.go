package grab

import (
	"fmt"
)

// ClassNamer resolves class identifier to human readable name
type ClassNamer interface {
	ClassName(classID int) (string, bool)
}

// ClassNames is a ClassNamer backed by plain map
type ClassNames map[int]string

// ClassName implements ClassNamer
func (names ClassNames) ClassName(classID int) (string, bool) {
	name, ok := names[classID]
	return name, ok
}

// NewClassNames creates ClassNames where class identifier is the index of the name
func NewClassNames(names ...string) ClassNames {
	classNames := make(ClassNames, len(names))
	for i, name := range names {
		classNames[i] = name
	}
	return classNames
}

// ResolveClassName returns name of the class. When namer is nil or does not know
// the class, placeholder "class_<id>" is returned
func ResolveClassName(namer ClassNamer, classID int) string {
	if namer != nil {
		if name, ok := namer.ClassName(classID); ok {
			return name
		}
	}
	return fmt.Sprintf("class_%d", classID)
}
