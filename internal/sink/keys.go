package sink

import (
	"strings"

	"github.com/samber/lo"
)

// KeySet is the ordered set of unique-key field names that identify the
// documents an update or delete applies to.
type KeySet struct {
	names []string
	index map[string]struct{}
}

// ParseKeySet splits a comma separated field list. Names are not trimmed;
// empty segments and repeated names are dropped.
func ParseKeySet(fields string) KeySet {
	names := lo.Uniq(lo.Compact(strings.Split(fields, ",")))

	index := make(map[string]struct{}, len(names))
	for _, name := range names {
		index[name] = struct{}{}
	}

	return KeySet{names: names, index: index}
}

func (k KeySet) Names() []string {
	names := make([]string, len(k.names))
	copy(names, k.names)
	return names
}

func (k KeySet) Contains(name string) bool {
	_, ok := k.index[name]
	return ok
}

func (k KeySet) Len() int {
	return len(k.names)
}

func (k KeySet) IsEmpty() bool {
	return len(k.names) == 0
}

func (k KeySet) String() string {
	return strings.Join(k.names, ",")
}
