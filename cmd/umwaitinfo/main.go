// Command umwaitinfo prints the wait capabilities of this machine as json
// and exits non-zero when the instruction family is missing, handy as a
// preflight check in pinned-worker deployments.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sugawarayuuta/sonnet"

	"github.com/dshulyak/umwait"
)

type report struct {
	Supported bool   `json:"supported"`
	MaxCores  int    `json:"max_cores"`
	TscHz     uint64 `json:"tsc_hz,omitempty"`
	Goarch    string `json:"goarch"`
	NumCPU    int    `json:"num_cpu"`
}

func main() {
	r := report{
		Supported: umwait.Supported(),
		MaxCores:  umwait.MaxCores,
		Goarch:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
	if r.Supported {
		r.TscHz = umwait.Hz()
	}
	out, err := sonnet.Marshal(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(string(out))
	if !r.Supported {
		os.Exit(1)
	}
}
