package viewmodel

// Option is one entry of a filter select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}
