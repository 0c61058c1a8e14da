package run

// Output is one partition written by a run.
type Output struct {
	Partition string `json:"partition"`
	Path      string `json:"path"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
}
