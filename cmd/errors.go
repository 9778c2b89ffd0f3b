package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

// ConnectivityError reports that none of the candidate ports accepted a
// connection, so no probe was run.
type ConnectivityError struct {
	Target evaluation.Target
	Ports  []int
	Err    error
}

func (e *ConnectivityError) Error() string {
	ports := make([]string, 0, len(e.Ports))
	for _, p := range e.Ports {
		ports = append(ports, strconv.Itoa(p))
	}
	msg := fmt.Sprintf("%s is not reachable on port(s) %s", e.Target.Domain, strings.Join(ports, ", "))
	if len(e.Ports) == 0 {
		msg = fmt.Sprintf("%s is not reachable", e.Target.Domain)
	}
	return msg
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}
