package data

// Class is one target category: the integer code used in the source file and
// its display name.
type Class struct {
	Code int
	Name string
}

// Schema describes the expected structure of a labeled dataset.
type Schema struct {
	Label    string  // name of the label column
	Features int     // expected number of feature columns, 0 => any
	Classes  []Class // allowed label codes, in report order
}

// Codes returns the class codes in schema order.
func (s Schema) Codes() []int {
	out := make([]int, len(s.Classes))
	for i, c := range s.Classes {
		out[i] = c.Code
	}
	return out
}

// Names returns the class display names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		out[i] = c.Name
	}
	return out
}

func (s Schema) hasCode(code int) bool {
	for _, c := range s.Classes {
		if c.Code == code {
			return true
		}
	}
	return false
}
