package pudding

import (
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// LinkTable maps library names to their deployed addresses.
type LinkTable map[string]common.Address

// Clone returns an independent copy of the table.
func (l LinkTable) Clone() LinkTable {
	out := make(LinkTable, len(l))
	for name, addr := range l {
		out[name] = addr
	}
	return out
}

// unresolvedPattern matches a library placeholder such as
// "__MathLib_______________________________".
var unresolvedPattern = regexp.MustCompile(`__[^_]+_+`)

// Materialize substitutes every placeholder of each linked library with the
// library's address as lowercase hex without the 0x prefix. Placeholders of
// libraries missing from links are left in place.
func Materialize(template string, links LinkTable) string {
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	out := template
	for _, name := range names {
		addr := links[name]
		re := regexp.MustCompile("__" + regexp.QuoteMeta(name) + "_+")
		out = re.ReplaceAllLiteralString(out, hex.EncodeToString(addr.Bytes()))
	}
	return out
}

// ScanUnresolved returns the sorted, deduplicated names of the libraries
// whose placeholders remain in bytecode.
func ScanUnresolved(bytecode string) []string {
	matches := unresolvedPattern.FindAllString(bytecode, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ReplaceAll(m, "_", "")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
