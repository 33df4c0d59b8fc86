// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"gopkg.microglot.org/avdl.go/internal/compiler"
	"gopkg.microglot.org/avdl.go/internal/exc"
)

type diagPrinter struct {
	location *color.Color
	code     *color.Color
}

func newDiagPrinter(colored bool) *diagPrinter {
	p := &diagPrinter{
		location: color.New(color.Bold),
		code:     color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.location, p.code} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *diagPrinter) print(w io.Writer, err error) {
	var e exc.Exception
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "%s %s\n", p.code.Sprint("error:"), err.Error())
		return
	}
	loc := e.Location().String()
	if loc == "" {
		loc = "<input>"
	}
	fmt.Fprintf(w, "%s: %s %s\n", p.location.Sprint(loc), p.code.Sprint(e.Code()), e.Message())
}

// printDiagnostics writes one line per failure. Multi-target failures are
// listed in the order they were reported.
func printDiagnostics(w io.Writer, err error, colored bool) {
	p := newDiagPrinter(colored)
	var multi compiler.MultiException
	if errors.As(err, &multi) {
		for _, e := range multi {
			p.print(w, e)
		}
		return
	}
	p.print(w, err)
}
