package prepare

// Env is the typed key/value context threaded from preparers into the
// test body. Each preparer publishes its resolved resource name under
// its env key, and creation callbacks may contribute further values
// (connection strings, generated IDs) for the test body to read.
type Env struct {
	values map[string]string
}

// NewEnv returns an empty context.
func NewEnv() *Env {
	return &Env{values: make(map[string]string)}
}

// Set stores a value under key, overwriting any previous value.
func (e *Env) Set(key, value string) {
	e.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (e *Env) Get(key string) string {
	return e.values[key]
}

// Lookup returns the value for key and whether it was present.
func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Len returns the number of stored values.
func (e *Env) Len() int {
	return len(e.values)
}
