package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyBatch is returned when a registration carries no usable rows
	ErrEmptyBatch = errors.New("no valid data to register")
	// ErrIncompleteRow is returned when a started row misses a field or the gate letter is invalid
	ErrIncompleteRow = errors.New("fill in every field of the started rows, including the gate letter")
)

var validate = validator.New()

// IsBlank reports whether no field of the row was filled in
func (r PartialRecord) IsBlank() bool {
	return r.NomeCrianca == "" && r.NomeResponsavel == "" && r.Idade == "" && r.Telefone == "" && r.Comum == ""
}

// ValidateBatch drops blank rows, stamps the gate letter on the rest and
// rejects the whole batch if any started row is incomplete.
func ValidateBatch(rows []PartialRecord, gate string) ([]PartialRecord, error) {
	gate = strings.ToUpper(strings.TrimSpace(gate))

	batch := make([]PartialRecord, 0, len(rows))
	for i, row := range rows {
		if row.IsBlank() {
			continue
		}
		row.Portaria = gate
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrIncompleteRow)
		}
		batch = append(batch, row)
	}
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	return batch, nil
}
