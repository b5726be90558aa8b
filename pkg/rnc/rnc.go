// Package rnc validates and formats Dominican taxpayer identifiers: the
// 9-digit RNC issued to companies and the 11-digit cédula of individuals.
package rnc

import (
	"errors"
	"regexp"
	"strings"
)

type Kind string

const (
	KindRNC    Kind = "RNC"
	KindCedula Kind = "CEDULA"
)

var ErrInvalid = errors.New("RNC o cédula inválido: debe contener 9 u 11 dígitos")

var pattern = regexp.MustCompile(`^(\d{9}|\d{11})$`)

// Normalize drops dashes, spaces and any other non-digit characters.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse normalizes s and reports which kind of identifier it is.
func Parse(s string) (string, Kind, error) {
	n := Normalize(s)
	if !pattern.MatchString(n) {
		return "", "", ErrInvalid
	}
	if len(n) == 9 {
		return n, KindRNC, nil
	}
	return n, KindCedula, nil
}

func IsValid(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}

// Format renders 1-31-24679-6 for an RNC and 001-1234567-8 for a cédula.
// Anything else is returned unchanged.
func Format(s string) string {
	n, kind, err := Parse(s)
	if err != nil {
		return s
	}
	if kind == KindRNC {
		return n[:1] + "-" + n[1:3] + "-" + n[3:8] + "-" + n[8:]
	}
	return n[:3] + "-" + n[3:10] + "-" + n[10:]
}

// DGIIIdentificationType is the "Tipo de Identificación" column of the 606/607
// formats: 1 for RNC, 2 for cédula.
func DGIIIdentificationType(kind Kind) string {
	switch kind {
	case KindRNC:
		return "1"
	case KindCedula:
		return "2"
	}
	return ""
}
