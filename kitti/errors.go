package kitti

import (
	"bytes"
	"fmt"
)

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
