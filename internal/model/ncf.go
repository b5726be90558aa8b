package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type NcfType string

const (
	NcfCreditoFiscal NcfType = "B01"
	NcfConsumo       NcfType = "B02"
	NcfNotaCredito   NcfType = "B04"
	NcfRegimenEsp    NcfType = "B14"
	NcfGubernamental NcfType = "B15"
)

var ncfTypeNames = map[NcfType]string{
	NcfCreditoFiscal: "Crédito Fiscal",
	NcfConsumo:       "Consumo",
	NcfNotaCredito:   "Nota de Crédito",
	NcfRegimenEsp:    "Regímenes Especiales",
	NcfGubernamental: "Gubernamental",
}

func (t NcfType) Valid() bool {
	_, ok := ncfTypeNames[t]
	return ok
}

func (t NcfType) Name() string { return ncfTypeNames[t] }

// RequiresTaxID reports whether the buyer must be identified by RNC or cédula.
func (t NcfType) RequiresTaxID() bool {
	return t == NcfCreditoFiscal || t == NcfRegimenEsp || t == NcfGubernamental
}

// NCFNumberDigits is the width of the sequential part of a B-series NCF.
const NCFNumberDigits = 8

var (
	ErrInvalidNCF = errors.New("NCF inválido: formato esperado B + tipo (2 dígitos) + secuencia (8 dígitos)")

	ncfPattern = regexp.MustCompile(`^([A-Z])(\d{2})(\d{8})$`)
)

// FormatNCF builds e.g. B0200000001.
func FormatNCF(series string, t NcfType, number int64) string {
	return fmt.Sprintf("%s%s%0*d", series, strings.TrimPrefix(string(t), series), NCFNumberDigits, number)
}

// ParseNCF splits an NCF into series, type and sequence number.
func ParseNCF(s string) (series string, t NcfType, number int64, err error) {
	m := ncfPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return "", "", 0, ErrInvalidNCF
	}
	t = NcfType(m[1] + m[2])
	if m[1] == "B" && !t.Valid() {
		return "", "", 0, ErrInvalidNCF
	}
	number, _ = strconv.ParseInt(m[3], 10, 64)
	if number == 0 {
		return "", "", 0, ErrInvalidNCF
	}
	return m[1], t, number, nil
}

// NcfSequence is a DGII-authorized range of receipt numbers. CurrentNumber is
// the last number issued; StartNumber-1 before the first issue.
type NcfSequence struct {
	BaseModel
	Type          NcfType    `gorm:"type:varchar(3);not null;index" json:"type"`
	Series        string     `gorm:"type:varchar(1);not null;default:'B'" json:"series"`
	Description   string     `gorm:"type:varchar(255)" json:"description,omitempty"`
	StartNumber   int64      `gorm:"not null" json:"start_number"`
	CurrentNumber int64      `gorm:"not null" json:"current_number"`
	MaxNumber     int64      `gorm:"not null" json:"max_number"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
}

func (s *NcfSequence) Remaining() int64 {
	r := s.MaxNumber - s.CurrentNumber
	if r < 0 {
		return 0
	}
	return r
}

func (s *NcfSequence) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

func (s *NcfSequence) Usable(now time.Time) bool {
	return s.IsActive && !s.Expired(now) && s.Remaining() > 0
}

// Overlaps reports whether the two inclusive ranges share a number.
func (s *NcfSequence) Overlaps(start, max int64) bool {
	return start <= s.MaxNumber && s.StartNumber <= max
}

// NcfSequenceStatus is the per-sequence summary shown on the NCF dashboard.
type NcfSequenceStatus struct {
	NcfSequence
	TypeName  string `json:"type_name"`
	Remaining int64  `json:"remaining"`
	Used      int64  `json:"used"`
	NextNCF   string `json:"next_ncf,omitempty"`
	Expired   bool   `json:"expired"`
	LowAlert  bool   `json:"low_alert"`
}
