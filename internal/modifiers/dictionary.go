// Package modifiers holds the static dictionary that attaches
// human-readable meanings to billing modifier tokens.
package modifiers

// Dictionary maps modifier tokens to descriptions. Read-only after
// construction; safe for unsynchronized concurrent reads.
type Dictionary struct {
	meanings map[string]string
}

// defaultMeanings covers the common CPT/HCPCS modifiers encountered in
// hospital chargemasters.
var defaultMeanings = map[string]string{
	"22": "Increased procedural services",
	"26": "Professional component only",
	"50": "Bilateral procedure",
	"51": "Multiple procedures",
	"52": "Reduced services",
	"53": "Discontinued procedure",
	"59": "Distinct procedural service",
	"76": "Repeat procedure by same physician",
	"77": "Repeat procedure by another physician",
	"LT": "Left side",
	"RT": "Right side",
	"TC": "Technical component only",
	"JW": "Drug amount discarded/not administered to any patient",
	"JZ": "Zero drug amount discarded",
	"GA": "Waiver of liability statement on file",
	"GY": "Item or service statutorily excluded",
	"XU": "Unusual non-overlapping service",
}

// NewDictionary builds a Dictionary from a configured mapping, falling
// back to the default set when cfg is empty.
func NewDictionary(cfg map[string]string) *Dictionary {
	src := cfg
	if len(src) == 0 {
		src = defaultMeanings
	}
	m := make(map[string]string, len(src))
	for token, desc := range src {
		m[token] = desc
	}
	return &Dictionary{meanings: m}
}

// Resolve returns the description for a token, or nil when the token
// is not in the dictionary. An unresolved token never invalidates the
// record carrying it.
func (d *Dictionary) Resolve(token string) *string {
	if desc, ok := d.meanings[token]; ok {
		return &desc
	}
	return nil
}

// Len returns the number of known tokens.
func (d *Dictionary) Len() int {
	return len(d.meanings)
}
